package domain

// StatusKind classifies the operator-facing status line.
type StatusKind string

const (
	StatusWaiting    StatusKind = "waiting"
	StatusConnecting StatusKind = "connecting"
	StatusDetecting  StatusKind = "detecting"
	StatusError      StatusKind = "error"
)

// Status is what the debug overlay shows to the operator.
type Status struct {
	Kind StatusKind `json:"kind"`
	Text string     `json:"text"`
}
