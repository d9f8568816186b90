package state

import "time"

// Status is the connectivity state of the target.
type Status string

const (
	StatusUnknown Status = "UNKNOWN"
	StatusUp      Status = "UP"
	StatusDown    Status = "DOWN"
)

// Snapshot is a read-only copy of the monitor's view of the target.
type Snapshot struct {
	Target         string
	Status         Status
	Since          time.Time
	LastCheckedAt  time.Time
	LastRTT        time.Duration
	LastError      string
	Outages        int
	TotalProbes    int
	FailedProbes   int
	LogWriteErrors int
	LastLogError   string
}

// Store shares the latest Snapshot between the monitor loop and readers.
type Store interface {
	Publish(snapshot Snapshot)
	GetSnapshot() Snapshot
}
