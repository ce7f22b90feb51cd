package domain

import "time"

// SyncStatus represents the state of one synchronization attempt
type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "PENDING"
	SyncStatusRunning   SyncStatus = "RUNNING"
	SyncStatusCompleted SyncStatus = "COMPLETED"
	SyncStatusFailed    SyncStatus = "FAILED"
	SyncStatusPartial   SyncStatus = "PARTIAL"
)

// IsTerminal reports whether the status ends a run
func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed || s == SyncStatusPartial
}

// SyncSource records what triggered a run
type SyncSource string

const (
	SyncSourceManual    SyncSource = "manual"
	SyncSourceScheduled SyncSource = "scheduled"
	SyncSourceWebhook   SyncSource = "webhook"
)

// MaxRecordErrors caps the per-record error summaries kept in SyncDetails
const MaxRecordErrors = 50

// SyncCounters are the per-record outcome tallies of a run
type SyncCounters struct {
	TotalRecords    int `json:"totalRecords"`
	SuccessfulSyncs int `json:"successfulSyncs"`
	FailedSyncs     int `json:"failedSyncs"`
	SkippedRecords  int `json:"skippedRecords"`
}

// Decided returns how many records reached a terminal decision
func (c SyncCounters) Decided() int {
	return c.SuccessfulSyncs + c.FailedSyncs + c.SkippedRecords
}

// RecordError summarises one failed record
type RecordError struct {
	Index      int    `json:"index"`
	Identifier string `json:"identifier,omitempty"`
	Error      string `json:"error"`
}

// SyncDetails is free-form provenance for a run
type SyncDetails struct {
	Source       SyncSource    `json:"source"`
	RecordErrors []RecordError `json:"recordErrors,omitempty"`
	// Truncated is set when more record errors occurred than were kept
	Truncated bool `json:"truncated,omitempty"`
}

// AddRecordError appends a record error, keeping at most MaxRecordErrors
func (d *SyncDetails) AddRecordError(e RecordError) {
	if len(d.RecordErrors) >= MaxRecordErrors {
		d.Truncated = true
		return
	}
	d.RecordErrors = append(d.RecordErrors, e)
}

// SyncLog is the audit record of one synchronization attempt.
// It is immutable once CompletedAt is set.
type SyncLog struct {
	ID                  string      `json:"id"`
	IntegrationConfigID string      `json:"integrationConfigId"`
	Status              SyncStatus  `json:"status"`
	SyncCounters
	ErrorMessage string      `json:"errorMessage,omitempty"`
	SyncDetails  SyncDetails `json:"syncDetails"`
	StartedAt    time.Time   `json:"startedAt"`
	CompletedAt  *time.Time  `json:"completedAt,omitempty"`
}

// IsCompleted reports whether the log reached a terminal state
func (l *SyncLog) IsCompleted() bool {
	return l.CompletedAt != nil
}

// Complete closes the log with COMPLETED or PARTIAL depending on failures
func (l *SyncLog) Complete(counters SyncCounters, at time.Time) {
	l.SyncCounters = counters
	if counters.FailedSyncs == 0 {
		l.Status = SyncStatusCompleted
	} else {
		l.Status = SyncStatusPartial
	}
	l.ErrorMessage = ""
	l.CompletedAt = &at
}

// Fail closes the log with FAILED, keeping whatever counters were tallied
func (l *SyncLog) Fail(counters SyncCounters, err error, at time.Time) {
	l.SyncCounters = counters
	l.Status = SyncStatusFailed
	l.ErrorMessage = err.Error()
	l.CompletedAt = &at
}
