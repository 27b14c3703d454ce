package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Incident() IncidentRepository
	Alert() AlertRepository
	Postmortem() PostmortemRepository

	Close() error
}
