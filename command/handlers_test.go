package command

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-studio/core"
	"github.com/goliatone/go-studio/protocols"
)

type stubTaskService struct {
	createFn func(ctx context.Context, input core.TaskInput) (core.Task, error)
	updateFn func(ctx context.Context, id string, patch core.TaskPatch) (core.Task, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s stubTaskService) Create(ctx context.Context, input core.TaskInput) (core.Task, error) {
	return s.createFn(ctx, input)
}

func (s stubTaskService) Update(ctx context.Context, id string, patch core.TaskPatch) (core.Task, error) {
	return s.updateFn(ctx, id, patch)
}

func (s stubTaskService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubSessionService struct {
	recordFn      func(ctx context.Context, protocolID int, input core.SessionInput) (core.ProtocolSession, *core.Protocol, error)
	recordBasicFn func(ctx context.Context, protocolID int, input core.BasicSessionInput) (core.ProtocolSession, *core.Protocol, error)
}

func (s stubSessionService) RecordSession(ctx context.Context, protocolID int, input core.SessionInput) (core.ProtocolSession, *core.Protocol, error) {
	return s.recordFn(ctx, protocolID, input)
}

func (s stubSessionService) RecordBasicSession(ctx context.Context, protocolID int, input core.BasicSessionInput) (core.ProtocolSession, *core.Protocol, error) {
	return s.recordBasicFn(ctx, protocolID, input)
}

func TestCreateTaskCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.Task{ID: "t-1", Title: "Draft essay", Type: core.TaskTypeWriting}
	called := false

	svc := stubTaskService{
		createFn: func(_ context.Context, input core.TaskInput) (core.Task, error) {
			called = true
			if input.Title != "Draft essay" {
				t.Fatalf("expected title to pass through, got %q", input.Title)
			}
			return expected, nil
		},
	}

	cmd := NewCreateTaskCommand(svc)
	collector := gocmd.NewResult[core.Task]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, CreateTaskMessage{Input: core.TaskInput{
		Title: "Draft essay",
		Type:  core.TaskTypeWriting,
	}})
	if err != nil {
		t.Fatalf("execute create task: %v", err)
	}
	if !called {
		t.Fatalf("expected task service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.ID != expected.ID {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestDeleteTaskCommand_ExecuteDelegates(t *testing.T) {
	called := false
	svc := stubTaskService{
		deleteFn: func(_ context.Context, id string) error {
			called = true
			if id != "t-9" {
				t.Fatalf("unexpected id %q", id)
			}
			return nil
		},
	}
	cmd := NewDeleteTaskCommand(svc)
	if err := cmd.Execute(context.Background(), DeleteTaskMessage{ID: "t-9"}); err != nil {
		t.Fatalf("execute delete task: %v", err)
	}
	if !called {
		t.Fatalf("expected delete invocation")
	}
}

func TestRecordSessionCommand_ExecuteStoresOutcome(t *testing.T) {
	protocol := core.Protocol{ID: 7, Status: core.ProtocolStatusInProgress, Progress: 0.5}
	svc := stubSessionService{
		recordFn: func(_ context.Context, protocolID int, input core.SessionInput) (core.ProtocolSession, *core.Protocol, error) {
			if protocolID != 7 {
				t.Fatalf("unexpected protocol id %d", protocolID)
			}
			return core.ProtocolSession{ID: "s-1", ProtocolID: protocolID, Score: input.Score}, &protocol, nil
		},
	}

	cmd := NewRecordSessionCommand(svc)
	collector := gocmd.NewResult[SessionOutcome]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, RecordSessionMessage{ProtocolID: 7, Input: core.SessionInput{
		Date:       "2025-06-01",
		PieceTitle: "Etude",
		Composer:   "Chopin",
		Score:      3,
	}})
	if err != nil {
		t.Fatalf("execute record session: %v", err)
	}
	outcome, ok := collector.Load()
	if !ok {
		t.Fatalf("expected session outcome to be stored")
	}
	if outcome.Session.ID != "s-1" || outcome.Protocol == nil || outcome.Protocol.ID != 7 {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}
}

func TestCommands_FailWithoutService(t *testing.T) {
	if err := (&CreateTaskCommand{}).Execute(context.Background(), CreateTaskMessage{}); err == nil {
		t.Fatalf("expected dependency error")
	}
	if err := (&RecordSessionCommand{}).Execute(context.Background(), RecordSessionMessage{}); err == nil {
		t.Fatalf("expected dependency error")
	}
	if err := (&UpdateProtocolStatusCommand{}).Execute(context.Background(), UpdateProtocolStatusMessage{}); err == nil {
		t.Fatalf("expected dependency error")
	}
}

func TestMessages_Validate(t *testing.T) {
	if err := (CreateTaskMessage{Input: core.TaskInput{Title: "x", Type: core.TaskTypeTech}}).Validate(); err != nil {
		t.Fatalf("expected valid create message, got %v", err)
	}
	if err := (CreateTaskMessage{}).Validate(); err == nil {
		t.Fatalf("expected create validation failure")
	}
	if err := (UpdateTaskMessage{ID: "t-1"}).Validate(); err == nil {
		t.Fatalf("expected empty-patch rejection")
	}
	if err := (RecordBasicSessionMessage{Input: core.BasicSessionInput{
		Date:               "2025-06-01",
		StatusAfterSession: "paused",
	}}).Validate(); err == nil {
		t.Fatalf("expected status validation failure")
	}
	if err := (UpdateProtocolMetaMessage{Input: protocols.UpdateMetaInput{ID: 0}}).Validate(); err == nil {
		t.Fatalf("expected missing-id rejection")
	}
}
