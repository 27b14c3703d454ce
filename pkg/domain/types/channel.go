package types

import "fmt"

// ChannelType represents a paging transport channel
type ChannelType string

const (
	ChannelSlack   ChannelType = "slack"
	ChannelWebhook ChannelType = "webhook"
	ChannelEmail   ChannelType = "email"
	ChannelSMS     ChannelType = "sms"
)

// AllChannelTypes returns all valid channel types
func AllChannelTypes() []ChannelType {
	return []ChannelType{
		ChannelSlack,
		ChannelWebhook,
		ChannelEmail,
		ChannelSMS,
	}
}

// IsValid checks if the channel type is valid
func (c ChannelType) IsValid() bool {
	switch c {
	case ChannelSlack,
		ChannelWebhook,
		ChannelEmail,
		ChannelSMS:
		return true
	default:
		return false
	}
}

// String returns the string representation of the channel type
func (c ChannelType) String() string {
	return string(c)
}

// ParseChannelType parses a string into a ChannelType
func ParseChannelType(s string) (ChannelType, error) {
	c := ChannelType(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid channel type: %s", s)
	}
	return c, nil
}
