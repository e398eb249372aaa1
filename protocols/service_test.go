package protocols

import (
	"context"
	"math"
	"testing"

	"github.com/goliatone/go-studio/core"
	"github.com/goliatone/go-studio/store/memory"
)

func newTestService(t *testing.T, seed ...core.Protocol) (*Service, *memory.ProtocolStore) {
	t.Helper()
	store := memory.NewProtocolStore(seed...)
	service, err := NewService(store, nil)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return service, store
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestService_UpdateStatusPinsCompletedProgress(t *testing.T) {
	service, _ := newTestService(t, core.Protocol{
		ID:       3,
		Name:     "Arpeggios",
		Status:   core.ProtocolStatusInProgress,
		Progress: 0.6,
	})

	updated, err := service.UpdateStatus(context.Background(), 3, UpdateStatusInput{
		Status:    core.ProtocolStatusCompleted,
		Notes:     strPtr("clean at tempo"),
		NextFocus: strPtr("voicing"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != core.ProtocolStatusCompleted || updated.Progress != 1 {
		t.Fatalf("completed must pin progress to 1, got %+v", updated)
	}
	if updated.Notes != "clean at tempo" || updated.NextFocus != "voicing" {
		t.Fatalf("notes and next_focus not applied: %+v", updated)
	}
}

func TestService_UpdateStatusLeavesProgressOtherwise(t *testing.T) {
	service, _ := newTestService(t, core.Protocol{
		ID:       4,
		Status:   core.ProtocolStatusInProgress,
		Progress: 0.4,
	})

	updated, err := service.UpdateStatus(context.Background(), 4, UpdateStatusInput{
		Status: core.ProtocolStatusNotStarted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Progress != 0.4 {
		t.Fatalf("non-completed status edits must not move progress, got %v", updated.Progress)
	}
}

func TestService_UpdateStatusClearsAndPreservesNotes(t *testing.T) {
	service, _ := newTestService(t, core.Protocol{
		ID:        6,
		Status:    core.ProtocolStatusInProgress,
		Notes:     "watch left hand",
		NextFocus: "tempo",
	})

	// Absent fields leave the stored values alone.
	updated, err := service.UpdateStatus(context.Background(), 6, UpdateStatusInput{
		Status: core.ProtocolStatusInProgress,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Notes != "watch left hand" || updated.NextFocus != "tempo" {
		t.Fatalf("absent fields must not touch stored values, got %+v", updated)
	}

	// An explicit empty string clears them.
	updated, err = service.UpdateStatus(context.Background(), 6, UpdateStatusInput{
		Status:    core.ProtocolStatusInProgress,
		Notes:     strPtr(""),
		NextFocus: strPtr(""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Notes != "" || updated.NextFocus != "" {
		t.Fatalf("explicit empty values must clear stored fields, got %+v", updated)
	}
}

func TestService_UpdateStatusRejectsUnknownStatus(t *testing.T) {
	service, _ := newTestService(t, core.Protocol{ID: 1})

	if _, err := service.UpdateStatus(context.Background(), 1, UpdateStatusInput{Status: "paused"}); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_UpdateStatusMissingProtocol(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.UpdateStatus(context.Background(), 42, UpdateStatusInput{Status: core.ProtocolStatusInProgress})
	if !core.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestService_UpdateMetaTouchesOnlyDesignFields(t *testing.T) {
	service, store := newTestService(t, core.Protocol{
		ID:       5,
		Status:   core.ProtocolStatusInProgress,
		Progress: 0.7,
	})

	meta, err := service.UpdateMeta(context.Background(), UpdateMetaInput{
		ID:                  5,
		DesignStatus:        DesignField{Value: core.DesignStatusApproved, Set: true},
		IsActiveForPractice: boolPtr(true),
		AdminNotes:          strPtr("rotate weekly"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.DesignStatus != core.DesignStatusApproved || !meta.IsActiveForPractice || meta.AdminNotes != "rotate weekly" {
		t.Fatalf("meta edit not applied: %+v", meta)
	}

	stored, _ := store.Get(context.Background(), 5)
	if stored.Status != core.ProtocolStatusInProgress || stored.Progress != 0.7 {
		t.Fatalf("meta edit must not touch status or progress: %+v", stored)
	}
}

func TestService_UpdateMetaRejectsBadDesignStatus(t *testing.T) {
	service, _ := newTestService(t, core.Protocol{ID: 1})

	_, err := service.UpdateMeta(context.Background(), UpdateMetaInput{
		ID:           1,
		DesignStatus: DesignField{Value: "finalized", Set: true},
	})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_SummaryAggregatesCatalog(t *testing.T) {
	service, _ := newTestService(t,
		core.Protocol{ID: 1, Status: core.ProtocolStatusNotStarted, Progress: 0},
		core.Protocol{ID: 2, Status: core.ProtocolStatusInProgress, Progress: 0.5, IsActiveForPractice: true},
		core.Protocol{ID: 3, Status: core.ProtocolStatusCompleted, Progress: 1, IsActiveForPractice: true},
	)

	summary, err := service.Summary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Total != 3 || summary.NotStarted != 1 || summary.InProgress != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.ActiveForPractice != 2 {
		t.Fatalf("expected 2 active for practice, got %d", summary.ActiveForPractice)
	}
	if math.Abs(summary.AverageProgress-0.5) > 1e-9 {
		t.Fatalf("expected mean progress 0.5, got %v", summary.AverageProgress)
	}
}

func TestService_SummaryEmptyCatalog(t *testing.T) {
	service, _ := newTestService(t)

	summary, err := service.Summary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Total != 0 || summary.AverageProgress != 0 {
		t.Fatalf("expected zeroed summary, got %+v", summary)
	}
}
