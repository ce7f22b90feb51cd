package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSyncLog_Complete(t *testing.T) {
	at := time.Now()

	log := &SyncLog{Status: SyncStatusRunning}
	log.Complete(SyncCounters{TotalRecords: 2, SuccessfulSyncs: 1, SkippedRecords: 1}, at)
	if log.Status != SyncStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", log.Status)
	}
	if !log.IsCompleted() {
		t.Error("expected log to be completed")
	}

	log = &SyncLog{Status: SyncStatusRunning}
	log.Complete(SyncCounters{TotalRecords: 2, SuccessfulSyncs: 1, FailedSyncs: 1}, at)
	if log.Status != SyncStatusPartial {
		t.Errorf("expected PARTIAL, got %s", log.Status)
	}
	if log.ErrorMessage != "" {
		t.Errorf("expected no error message, got %q", log.ErrorMessage)
	}
}

func TestSyncLog_Fail(t *testing.T) {
	log := &SyncLog{Status: SyncStatusRunning}
	log.Fail(SyncCounters{}, errors.New("connection refused"), time.Now())

	if log.Status != SyncStatusFailed {
		t.Errorf("expected FAILED, got %s", log.Status)
	}
	if log.ErrorMessage != "connection refused" {
		t.Errorf("unexpected error message %q", log.ErrorMessage)
	}
	if log.CompletedAt == nil {
		t.Error("expected completedAt to be set")
	}
}

func TestSyncStatus_IsTerminal(t *testing.T) {
	tests := map[SyncStatus]bool{
		SyncStatusPending:   false,
		SyncStatusRunning:   false,
		SyncStatusCompleted: true,
		SyncStatusFailed:    true,
		SyncStatusPartial:   true,
	}
	for status, want := range tests {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestSyncDetails_AddRecordError(t *testing.T) {
	var d SyncDetails
	for i := 0; i < MaxRecordErrors+5; i++ {
		d.AddRecordError(RecordError{Index: i, Error: fmt.Sprintf("err %d", i)})
	}
	if len(d.RecordErrors) != MaxRecordErrors {
		t.Errorf("expected %d errors kept, got %d", MaxRecordErrors, len(d.RecordErrors))
	}
	if !d.Truncated {
		t.Error("expected truncated flag")
	}
}

func TestSyncCounters_Decided(t *testing.T) {
	c := SyncCounters{TotalRecords: 5, SuccessfulSyncs: 2, FailedSyncs: 1, SkippedRecords: 1}
	if c.Decided() != 4 {
		t.Errorf("expected 4, got %d", c.Decided())
	}
}
