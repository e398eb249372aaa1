// Package command exposes the studio mutations as typed command messages
// for dispatch through go-command runners.
package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-studio/core"
	"github.com/goliatone/go-studio/protocols"
)

const (
	TypeCreateTask           = "studio.command.task.create"
	TypeUpdateTask           = "studio.command.task.update"
	TypeDeleteTask           = "studio.command.task.delete"
	TypeRecordSession        = "studio.command.session.record"
	TypeRecordBasicSession   = "studio.command.session.record_basic"
	TypeUpdateProtocolStatus = "studio.command.protocol.update_status"
	TypeUpdateProtocolMeta   = "studio.command.protocol.update_meta"
)

type CreateTaskMessage struct {
	Input core.TaskInput
}

func (CreateTaskMessage) Type() string { return TypeCreateTask }

func (m CreateTaskMessage) Validate() error {
	if strings.TrimSpace(m.Input.Title) == "" {
		return fmt.Errorf("command: task title is required")
	}
	if !m.Input.Type.Valid() {
		return fmt.Errorf("command: invalid task type %q", m.Input.Type)
	}
	return nil
}

type UpdateTaskMessage struct {
	ID    string
	Patch core.TaskPatch
}

func (UpdateTaskMessage) Type() string { return TypeUpdateTask }

func (m UpdateTaskMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("command: task id is required")
	}
	if m.Patch.Empty() {
		return fmt.Errorf("command: task patch is empty")
	}
	return nil
}

type DeleteTaskMessage struct {
	ID string
}

func (DeleteTaskMessage) Type() string { return TypeDeleteTask }

func (m DeleteTaskMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("command: task id is required")
	}
	return nil
}

type RecordSessionMessage struct {
	ProtocolID int
	Input      core.SessionInput
}

func (RecordSessionMessage) Type() string { return TypeRecordSession }

func (m RecordSessionMessage) Validate() error {
	if strings.TrimSpace(m.Input.Date) == "" {
		return fmt.Errorf("command: session date is required")
	}
	if strings.TrimSpace(m.Input.PieceTitle) == "" {
		return fmt.Errorf("command: piece title is required")
	}
	return nil
}

type RecordBasicSessionMessage struct {
	ProtocolID int
	Input      core.BasicSessionInput
}

func (RecordBasicSessionMessage) Type() string { return TypeRecordBasicSession }

func (m RecordBasicSessionMessage) Validate() error {
	if strings.TrimSpace(m.Input.Date) == "" {
		return fmt.Errorf("command: session date is required")
	}
	if !m.Input.StatusAfterSession.Valid() {
		return fmt.Errorf("command: invalid status_after_session %q", m.Input.StatusAfterSession)
	}
	return nil
}

type UpdateProtocolStatusMessage struct {
	ProtocolID int
	Input      protocols.UpdateStatusInput
}

func (UpdateProtocolStatusMessage) Type() string { return TypeUpdateProtocolStatus }

func (m UpdateProtocolStatusMessage) Validate() error {
	if !m.Input.Status.Valid() {
		return fmt.Errorf("command: invalid protocol status %q", m.Input.Status)
	}
	return nil
}

type UpdateProtocolMetaMessage struct {
	Input protocols.UpdateMetaInput
}

func (UpdateProtocolMetaMessage) Type() string { return TypeUpdateProtocolMeta }

func (m UpdateProtocolMetaMessage) Validate() error {
	if m.Input.ID <= 0 {
		return fmt.Errorf("command: protocol id is required")
	}
	if m.Input.DesignStatus.Set && !m.Input.DesignStatus.Value.Valid() {
		return fmt.Errorf("command: invalid design_status %q", m.Input.DesignStatus.Value)
	}
	return nil
}
