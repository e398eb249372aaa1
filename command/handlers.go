package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-studio/core"
	"github.com/goliatone/go-studio/protocols"
)

// TaskMutatingService is the task lifecycle surface commands drive.
type TaskMutatingService interface {
	Create(ctx context.Context, input core.TaskInput) (core.Task, error)
	Update(ctx context.Context, id string, patch core.TaskPatch) (core.Task, error)
	Delete(ctx context.Context, id string) error
}

// SessionMutatingService is the progress engine surface commands drive.
type SessionMutatingService interface {
	RecordSession(ctx context.Context, protocolID int, input core.SessionInput) (core.ProtocolSession, *core.Protocol, error)
	RecordBasicSession(ctx context.Context, protocolID int, input core.BasicSessionInput) (core.ProtocolSession, *core.Protocol, error)
}

// ProtocolMutatingService is the catalog surface commands drive.
type ProtocolMutatingService interface {
	UpdateStatus(ctx context.Context, id int, input protocols.UpdateStatusInput) (core.Protocol, error)
	UpdateMeta(ctx context.Context, input protocols.UpdateMetaInput) (core.ProtocolMeta, error)
}

type CreateTaskCommand struct {
	service TaskMutatingService
}

func NewCreateTaskCommand(service TaskMutatingService) *CreateTaskCommand {
	return &CreateTaskCommand{service: service}
}

func (c *CreateTaskCommand) Execute(ctx context.Context, msg CreateTaskMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: task service is required")
	}
	out, err := c.service.Create(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateTaskCommand struct {
	service TaskMutatingService
}

func NewUpdateTaskCommand(service TaskMutatingService) *UpdateTaskCommand {
	return &UpdateTaskCommand{service: service}
}

func (c *UpdateTaskCommand) Execute(ctx context.Context, msg UpdateTaskMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: task service is required")
	}
	out, err := c.service.Update(ctx, msg.ID, msg.Patch)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteTaskCommand struct {
	service TaskMutatingService
}

func NewDeleteTaskCommand(service TaskMutatingService) *DeleteTaskCommand {
	return &DeleteTaskCommand{service: service}
}

func (c *DeleteTaskCommand) Execute(ctx context.Context, msg DeleteTaskMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: task service is required")
	}
	return c.service.Delete(ctx, msg.ID)
}

// SessionOutcome bundles the append and the resulting projection for
// result collectors.
type SessionOutcome struct {
	Session  core.ProtocolSession
	Protocol *core.Protocol
}

type RecordSessionCommand struct {
	service SessionMutatingService
}

func NewRecordSessionCommand(service SessionMutatingService) *RecordSessionCommand {
	return &RecordSessionCommand{service: service}
}

func (c *RecordSessionCommand) Execute(ctx context.Context, msg RecordSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session service is required")
	}
	session, protocol, err := c.service.RecordSession(ctx, msg.ProtocolID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, SessionOutcome{Session: session, Protocol: protocol})
	return nil
}

type RecordBasicSessionCommand struct {
	service SessionMutatingService
}

func NewRecordBasicSessionCommand(service SessionMutatingService) *RecordBasicSessionCommand {
	return &RecordBasicSessionCommand{service: service}
}

func (c *RecordBasicSessionCommand) Execute(ctx context.Context, msg RecordBasicSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session service is required")
	}
	session, protocol, err := c.service.RecordBasicSession(ctx, msg.ProtocolID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, SessionOutcome{Session: session, Protocol: protocol})
	return nil
}

type UpdateProtocolStatusCommand struct {
	service ProtocolMutatingService
}

func NewUpdateProtocolStatusCommand(service ProtocolMutatingService) *UpdateProtocolStatusCommand {
	return &UpdateProtocolStatusCommand{service: service}
}

func (c *UpdateProtocolStatusCommand) Execute(ctx context.Context, msg UpdateProtocolStatusMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: protocol service is required")
	}
	out, err := c.service.UpdateStatus(ctx, msg.ProtocolID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateProtocolMetaCommand struct {
	service ProtocolMutatingService
}

func NewUpdateProtocolMetaCommand(service ProtocolMutatingService) *UpdateProtocolMetaCommand {
	return &UpdateProtocolMetaCommand{service: service}
}

func (c *UpdateProtocolMetaCommand) Execute(ctx context.Context, msg UpdateProtocolMetaMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: protocol service is required")
	}
	out, err := c.service.UpdateMeta(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
