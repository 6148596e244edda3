package history

import (
	"time"
)

// Storage records what each rotation run did to each database
type Storage interface {
	// SaveStatus saves the current rotation status for a database
	SaveStatus(status *RotationStatus) error

	// GetStatus retrieves the current rotation status for a database
	GetStatus(database string) (*RotationStatus, error)

	// SaveHistory saves a rotation history entry
	SaveHistory(entry *HistoryEntry) error

	// GetHistory retrieves rotation history for a database, newest first
	GetHistory(database string, limit int) ([]HistoryEntry, error)
}

// Status values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RotationStatus is the latest known state of one database's password
type RotationStatus struct {
	Database      string    `json:"database"`
	Username      string    `json:"username"`
	Status        string    `json:"status"`
	LastAttempt   time.Time `json:"last_attempt"`
	LastRotation  time.Time `json:"last_rotation,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	RotationCount int       `json:"rotation_count"`
	SuccessCount  int       `json:"success_count"`
	FailureCount  int       `json:"failure_count"`
}

// HistoryEntry represents a single attempt against one database
type HistoryEntry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Database  string        `json:"database"`
	Username  string        `json:"username"`
	Status    string        `json:"status"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Record applies one attempt to the stored status and appends it to the history.
// A missing status is treated as a database that was never rotated.
func Record(s Storage, entry *HistoryEntry) error {
	if err := s.SaveHistory(entry); err != nil {
		return err
	}

	status, err := s.GetStatus(entry.Database)
	if err != nil {
		status = &RotationStatus{Database: entry.Database}
	}

	status.Username = entry.Username
	status.Status = entry.Status
	status.LastAttempt = entry.Timestamp
	status.LastError = entry.Error
	status.RotationCount++
	if entry.Status == StatusSuccess {
		status.SuccessCount++
		status.LastRotation = entry.Timestamp
	} else {
		status.FailureCount++
	}

	return s.SaveStatus(status)
}
