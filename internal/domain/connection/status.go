package connection

// Status is the lifecycle state of a connection.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConnected Status = "connected"
	StatusError     Status = "error"
	StatusRevoked   Status = "revoked"
)

func (s Status) String() string { return string(s) }

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConnected, StatusError, StatusRevoked:
		return true
	}
	return false
}
