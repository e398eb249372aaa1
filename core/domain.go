package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidTaskType       = errors.New("core: invalid task type")
	ErrInvalidTaskStatus     = errors.New("core: invalid task status")
	ErrInvalidTaskPriority   = errors.New("core: invalid task priority")
	ErrInvalidProtocolStatus = errors.New("core: invalid protocol status")
	ErrInvalidDesignStatus   = errors.New("core: invalid design status")
)

type TaskType string

const (
	TaskTypeWriting     TaskType = "WRITING"
	TaskTypeTranslation TaskType = "TRANSLATION"
	TaskTypeLearning    TaskType = "LEARNING"
	TaskTypeTech        TaskType = "TECH"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeWriting, TaskTypeTranslation, TaskTypeLearning, TaskTypeTech:
		return true
	default:
		return false
	}
}

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityNormal TaskPriority = "NORMAL"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityNormal, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}

// Task is the unit of work tracked by the lifecycle service. JSON field
// names are part of the wire contract and must not change.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Type        TaskType     `json:"type"`
	Category    string       `json:"category,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     string       `json:"dueDate,omitempty"`
	Tags        []string     `json:"tags"`
	Attachments []string     `json:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (t Task) Clone() Task {
	out := t
	out.Tags = append([]string(nil), t.Tags...)
	out.Attachments = append([]string(nil), t.Attachments...)
	return out
}

// TaskInput carries the caller-supplied fields for task creation.
type TaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        TaskType     `json:"type"`
	Category    string       `json:"category"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     string       `json:"dueDate"`
	Tags        []string     `json:"tags"`
	Attachments []string     `json:"attachments"`
}

// TaskPatch is a partial update. Nil fields are left untouched so the merge
// can distinguish "absent" from "set to zero value".
type TaskPatch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Type        *TaskType     `json:"type"`
	Category    *string       `json:"category"`
	Status      *TaskStatus   `json:"status"`
	Priority    *TaskPriority `json:"priority"`
	DueDate     *string       `json:"dueDate"`
	Tags        *[]string     `json:"tags"`
	Attachments *[]string     `json:"attachments"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Type == nil &&
		p.Category == nil && p.Status == nil && p.Priority == nil &&
		p.DueDate == nil && p.Tags == nil && p.Attachments == nil
}

type ProtocolStatus string

const (
	ProtocolStatusNotStarted ProtocolStatus = "not_started"
	ProtocolStatusInProgress ProtocolStatus = "in_progress"
	ProtocolStatusCompleted  ProtocolStatus = "completed"
)

func (s ProtocolStatus) Valid() bool {
	switch s {
	case ProtocolStatusNotStarted, ProtocolStatusInProgress, ProtocolStatusCompleted:
		return true
	default:
		return false
	}
}

type DesignStatus string

const (
	DesignStatusDraft      DesignStatus = "draft"
	DesignStatusInProgress DesignStatus = "in_progress"
	DesignStatusApproved   DesignStatus = "approved"
)

func (s DesignStatus) Valid() bool {
	switch s {
	case DesignStatusDraft, DesignStatusInProgress, DesignStatusApproved:
		return true
	default:
		return false
	}
}

// Protocol is a tracked practice routine. Its status and progress are a
// cached projection over the session log, never the source of truth.
type Protocol struct {
	ID                  int            `json:"id"`
	Name                string         `json:"name"`
	Status              ProtocolStatus `json:"status"`
	Progress            float64        `json:"progress"`
	LastSession         string         `json:"last_session,omitempty"`
	Notes               string         `json:"notes,omitempty"`
	NextFocus           string         `json:"next_focus,omitempty"`
	DesignStatus        DesignStatus   `json:"design_status"`
	IsActiveForPractice bool           `json:"is_active_for_practice"`
	AdminNotes          string         `json:"admin_notes,omitempty"`
}

// Normalize enforces the record invariants: progress stays inside [0,1] and
// a completed protocol always reports progress 1.
func (p *Protocol) Normalize() {
	if p == nil {
		return
	}
	p.Progress = ClampProgress(p.Progress)
	if p.Status == ProtocolStatusCompleted {
		p.Progress = 1
	}
}

func (p Protocol) Meta() ProtocolMeta {
	return ProtocolMeta{
		ID:                  p.ID,
		Name:                p.Name,
		DesignStatus:        p.DesignStatus,
		IsActiveForPractice: p.IsActiveForPractice,
		AdminNotes:          p.AdminNotes,
	}
}

func ClampProgress(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// ProtocolMeta is the administrative projection of a protocol.
type ProtocolMeta struct {
	ID                  int          `json:"id"`
	Name                string       `json:"name"`
	DesignStatus        DesignStatus `json:"design_status"`
	IsActiveForPractice bool         `json:"is_active_for_practice"`
	AdminNotes          string       `json:"admin_notes,omitempty"`
}

// ProtocolSummary aggregates tracked protocols for the summary endpoint.
type ProtocolSummary struct {
	Total             int     `json:"total"`
	NotStarted        int     `json:"not_started"`
	InProgress        int     `json:"in_progress"`
	Completed         int     `json:"completed"`
	ActiveForPractice int     `json:"active_for_practice"`
	AverageProgress   float64 `json:"average_progress"`
}

// ProtocolSession is one logged practice occurrence. Sessions are immutable
// once appended; a session may outlive its protocol (orphans are legal).
type ProtocolSession struct {
	ID           string `json:"id"`
	ProtocolID   int    `json:"protocol_id"`
	Date         string `json:"date"`
	PieceTitle   string `json:"piece_title"`
	Composer     string `json:"composer,omitempty"`
	Duration     int    `json:"duration_minutes"`
	Score        int    `json:"subjective_progress_score,omitempty"`
	Notes        string `json:"notes,omitempty"`
	NextTimeHint string `json:"next_time_hint,omitempty"`
}

// SessionInput is the scored session entry path.
type SessionInput struct {
	Date         string `json:"date"`
	PieceTitle   string `json:"piece_title"`
	Composer     string `json:"composer"`
	Duration     int    `json:"duration_minutes"`
	Score        int    `json:"subjective_progress_score"`
	Notes        string `json:"notes"`
	NextTimeHint string `json:"next_time_hint"`
}

// BasicSessionInput is the simplified entry path: the caller chooses the
// protocol status instead of having it derived from scores.
type BasicSessionInput struct {
	Date               string         `json:"date"`
	PieceTitle         string         `json:"piece_title"`
	Duration           int            `json:"duration_minutes"`
	Notes              string         `json:"notes"`
	StatusAfterSession ProtocolStatus `json:"status_after_session"`
}

const (
	EventTaskCreated       = "task_created"
	EventTaskUpdated       = "task_updated"
	EventTaskDeleted       = "task_deleted"
	EventTaskStatusChanged = "task_status_changed"
)

// KnownEvent reports whether name is one of the task event names this
// system emits and acknowledges on the inbound surface.
func KnownEvent(name string) bool {
	switch strings.TrimSpace(name) {
	case EventTaskCreated, EventTaskUpdated, EventTaskDeleted, EventTaskStatusChanged:
		return true
	default:
		return false
	}
}

// TaskEventPayload is the outbound webhook payload shape.
type TaskEventPayload struct {
	Event string `json:"event"`
	Task  Task   `json:"task"`
}

// UTCNow is the default clock used across the module; components take an
// overridable Now func for tests.
func UTCNow() time.Time {
	return time.Now().UTC()
}
