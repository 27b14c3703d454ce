package types

import "fmt"

// Category represents the classification of a detected incident
type Category string

const (
	CategorySecurity       Category = "SECURITY"
	CategoryInfrastructure Category = "INFRASTRUCTURE"
	CategoryClinicalSafety Category = "CLINICAL_SAFETY"
	CategoryOther          Category = "OTHER"
)

// AllCategories returns all valid categories
func AllCategories() []Category {
	return []Category{
		CategorySecurity,
		CategoryInfrastructure,
		CategoryClinicalSafety,
		CategoryOther,
	}
}

// IsValid checks if the category is valid
func (c Category) IsValid() bool {
	switch c {
	case CategorySecurity,
		CategoryInfrastructure,
		CategoryClinicalSafety,
		CategoryOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a string into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}
