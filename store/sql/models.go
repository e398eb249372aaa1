// Package sqlstore backs the studio stores with a relational database
// through bun. SQLite serves the single-user install; Postgres is the
// option for a shared deployment.
package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-studio/core"
)

type taskRecord struct {
	bun.BaseModel `bun:"table:studio_tasks,alias:st"`

	ID          string    `bun:"id,pk"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description"`
	Type        string    `bun:"type,notnull"`
	Category    string    `bun:"category"`
	Status      string    `bun:"status,notnull"`
	Priority    string    `bun:"priority,notnull"`
	DueDate     string    `bun:"due_date"`
	Tags        []string  `bun:"tags,type:jsonb,notnull"`
	Attachments []string  `bun:"attachments,type:jsonb,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newTaskRecord(task core.Task) *taskRecord {
	return &taskRecord{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Type:        string(task.Type),
		Category:    task.Category,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		Tags:        append([]string{}, task.Tags...),
		Attachments: append([]string{}, task.Attachments...),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func (r *taskRecord) toDomain() core.Task {
	if r == nil {
		return core.Task{}
	}
	return core.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Type:        core.TaskType(r.Type),
		Category:    r.Category,
		Status:      core.TaskStatus(r.Status),
		Priority:    core.TaskPriority(r.Priority),
		DueDate:     r.DueDate,
		Tags:        append([]string{}, r.Tags...),
		Attachments: append([]string{}, r.Attachments...),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type protocolRecord struct {
	bun.BaseModel `bun:"table:studio_protocols,alias:sp"`

	ID                  int     `bun:"id,pk"`
	Name                string  `bun:"name,notnull"`
	Status              string  `bun:"status,notnull"`
	Progress            float64 `bun:"progress,notnull"`
	LastSession         string  `bun:"last_session"`
	Notes               string  `bun:"notes"`
	NextFocus           string  `bun:"next_focus"`
	DesignStatus        string  `bun:"design_status"`
	IsActiveForPractice bool    `bun:"is_active_for_practice,notnull"`
	AdminNotes          string  `bun:"admin_notes"`
}

func newProtocolRecord(protocol core.Protocol) *protocolRecord {
	return &protocolRecord{
		ID:                  protocol.ID,
		Name:                protocol.Name,
		Status:              string(protocol.Status),
		Progress:            protocol.Progress,
		LastSession:         protocol.LastSession,
		Notes:               protocol.Notes,
		NextFocus:           protocol.NextFocus,
		DesignStatus:        string(protocol.DesignStatus),
		IsActiveForPractice: protocol.IsActiveForPractice,
		AdminNotes:          protocol.AdminNotes,
	}
}

func (r *protocolRecord) toDomain() core.Protocol {
	if r == nil {
		return core.Protocol{}
	}
	return core.Protocol{
		ID:                  r.ID,
		Name:                r.Name,
		Status:              core.ProtocolStatus(r.Status),
		Progress:            r.Progress,
		LastSession:         r.LastSession,
		Notes:               r.Notes,
		NextFocus:           r.NextFocus,
		DesignStatus:        core.DesignStatus(r.DesignStatus),
		IsActiveForPractice: r.IsActiveForPractice,
		AdminNotes:          r.AdminNotes,
	}
}

type sessionRecord struct {
	bun.BaseModel `bun:"table:studio_sessions,alias:ss"`

	ID           string    `bun:"id,pk"`
	ProtocolID   int       `bun:"protocol_id,notnull"`
	Date         string    `bun:"date,notnull"`
	PieceTitle   string    `bun:"piece_title"`
	Composer     string    `bun:"composer"`
	Duration     int       `bun:"duration_minutes,notnull"`
	Score        int       `bun:"subjective_progress_score"`
	Notes        string    `bun:"notes"`
	NextTimeHint string    `bun:"next_time_hint"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func newSessionRecord(session core.ProtocolSession, now time.Time) *sessionRecord {
	return &sessionRecord{
		ID:           session.ID,
		ProtocolID:   session.ProtocolID,
		Date:         session.Date,
		PieceTitle:   session.PieceTitle,
		Composer:     session.Composer,
		Duration:     session.Duration,
		Score:        session.Score,
		Notes:        session.Notes,
		NextTimeHint: session.NextTimeHint,
		CreatedAt:    now,
	}
}

func (r *sessionRecord) toDomain() core.ProtocolSession {
	if r == nil {
		return core.ProtocolSession{}
	}
	return core.ProtocolSession{
		ID:           r.ID,
		ProtocolID:   r.ProtocolID,
		Date:         r.Date,
		PieceTitle:   r.PieceTitle,
		Composer:     r.Composer,
		Duration:     r.Duration,
		Score:        r.Score,
		Notes:        r.Notes,
		NextTimeHint: r.NextTimeHint,
	}
}
