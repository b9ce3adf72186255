package simulation

import (
	"time"
)

// EventType defines the type of event in the simulation
type EventType string

const (
	EventTypeStopStarted         EventType = "stop-started"
	EventTypeStopCompleted       EventType = "stop-completed"
	EventTypeStopRejected        EventType = "stop-rejected"
	EventTypeReconfigured        EventType = "reconfigured"
	EventTypeReconfigureRejected EventType = "reconfigure-rejected"
)

// Event represents a point-in-time event in the simulation
type Event struct {
	Tick    uint64
	Elapsed time.Duration // simulated time since the clock was created
	Type    EventType
	Vehicle int // NoVehicle when the event is not about a single vehicle
	Stopped int // number of vehicles standing still when the event happened
	Message string

	IsWarning bool
}
