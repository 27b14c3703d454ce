package interfaces

import "time"

// Clock is the process-wide time source. Injected so tests can pin time.
type Clock interface {
	Now() time.Time
}
