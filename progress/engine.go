package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-studio/core"
)

const (
	// completionProgressFloor and completionGoodSessions gate the completion
	// override: a protocol completes once the linear projection reaches 0.9
	// and at least five sessions scored 4 or better.
	completionProgressFloor = 0.9
	completionGoodSessions  = 5

	minScore = 1
	maxScore = 5

	// startedProgressNudge keeps a protocol the caller marked in_progress
	// from reporting zero progress on the basic entry path.
	startedProgressNudge = 0.1
)

// Engine recomputes a protocol's status and progress whenever a session is
// appended. The session log is the ground truth; the protocol record only
// caches the projection.
type Engine struct {
	protocols core.ProtocolStore
	sessions  core.SessionStore
	logger    core.Logger
	newID     func() string
}

func NewEngine(protocols core.ProtocolStore, sessions core.SessionStore, logger core.Logger) (*Engine, error) {
	if protocols == nil {
		return nil, fmt.Errorf("progress: protocol store is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("progress: session store is required")
	}
	return &Engine{
		protocols: protocols,
		sessions:  sessions,
		logger:    logger,
		newID:     uuid.NewString,
	}, nil
}

// RecordSession appends a scored session and reprojects the owning protocol.
// The session is persisted even when the protocol id is unknown: the append
// happens first and a missing protocol only skips the projection step, so
// orphaned sessions are legal.
func (e *Engine) RecordSession(
	ctx context.Context,
	protocolID int,
	input core.SessionInput,
) (core.ProtocolSession, *core.Protocol, error) {
	if e == nil || e.sessions == nil || e.protocols == nil {
		return core.ProtocolSession{}, nil, fmt.Errorf("progress: engine is not configured")
	}
	if err := validateSessionInput(input); err != nil {
		return core.ProtocolSession{}, nil, err
	}

	session := core.ProtocolSession{
		ID:           e.nextID(),
		ProtocolID:   protocolID,
		Date:         strings.TrimSpace(input.Date),
		PieceTitle:   strings.TrimSpace(input.PieceTitle),
		Composer:     strings.TrimSpace(input.Composer),
		Duration:     nonNegative(input.Duration),
		Score:        input.Score,
		Notes:        input.Notes,
		NextTimeHint: input.NextTimeHint,
	}
	if err := e.sessions.Append(ctx, session); err != nil {
		return core.ProtocolSession{}, nil, core.PersistenceError("progress: append session", err)
	}

	protocol, err := e.protocols.Get(ctx, protocolID)
	if err != nil {
		if core.IsNotFound(err) {
			return session, nil, core.NotFoundError(fmt.Sprintf("progress: protocol %d not found", protocolID))
		}
		return session, nil, core.PersistenceError("progress: load protocol", err)
	}

	history, err := e.sessions.ListByProtocol(ctx, protocolID)
	if err != nil {
		return session, nil, core.PersistenceError("progress: load session history", err)
	}

	derived, completed := Project(history)
	if completed {
		protocol.Status = core.ProtocolStatusCompleted
		protocol.Progress = 1
	} else {
		protocol.Progress = derived
		if protocol.Status == core.ProtocolStatusNotStarted {
			protocol.Status = core.ProtocolStatusInProgress
		}
	}
	protocol.LastSession = session.Date
	protocol.Normalize()

	if err := e.protocols.Save(ctx, protocol); err != nil {
		return session, nil, core.PersistenceError("progress: save protocol", err)
	}

	core.LogWith(ctx, e.logger, "info", "session recorded", map[string]any{
		"protocol_id": protocolID,
		"session_id":  session.ID,
		"score":       session.Score,
		"progress":    protocol.Progress,
		"status":      string(protocol.Status),
	})
	return session, &protocol, nil
}

// RecordBasicSession appends an unscored session and applies the status the
// caller chose. Progress moves heuristically instead of being derived:
// completed pins it to 1, a freshly started protocol gets a small nudge off
// zero, anything else leaves it untouched.
func (e *Engine) RecordBasicSession(
	ctx context.Context,
	protocolID int,
	input core.BasicSessionInput,
) (core.ProtocolSession, *core.Protocol, error) {
	if e == nil || e.sessions == nil || e.protocols == nil {
		return core.ProtocolSession{}, nil, fmt.Errorf("progress: engine is not configured")
	}
	if err := validateBasicSessionInput(input); err != nil {
		return core.ProtocolSession{}, nil, err
	}

	session := core.ProtocolSession{
		ID:         e.nextID(),
		ProtocolID: protocolID,
		Date:       strings.TrimSpace(input.Date),
		PieceTitle: strings.TrimSpace(input.PieceTitle),
		Duration:   nonNegative(input.Duration),
		Notes:      input.Notes,
	}
	if err := e.sessions.Append(ctx, session); err != nil {
		return core.ProtocolSession{}, nil, core.PersistenceError("progress: append session", err)
	}

	protocol, err := e.protocols.Get(ctx, protocolID)
	if err != nil {
		if core.IsNotFound(err) {
			return session, nil, core.NotFoundError(fmt.Sprintf("progress: protocol %d not found", protocolID))
		}
		return session, nil, core.PersistenceError("progress: load protocol", err)
	}

	priorProgress := protocol.Progress
	protocol.Status = input.StatusAfterSession
	protocol.LastSession = session.Date
	switch {
	case input.StatusAfterSession == core.ProtocolStatusCompleted:
		protocol.Progress = 1
	case input.StatusAfterSession == core.ProtocolStatusInProgress && priorProgress == 0:
		protocol.Progress = startedProgressNudge
	}
	protocol.Normalize()

	if err := e.protocols.Save(ctx, protocol); err != nil {
		return session, nil, core.PersistenceError("progress: save protocol", err)
	}

	core.LogWith(ctx, e.logger, "info", "basic session recorded", map[string]any{
		"protocol_id": protocolID,
		"session_id":  session.ID,
		"progress":    protocol.Progress,
		"status":      string(protocol.Status),
	})
	return session, &protocol, nil
}

// Project derives progress from a session history. It is a pure function of
// the list: recomputing over the same history always yields the same value.
// Unscored sessions from the basic entry path carry no score and are left
// out of the mean rather than dragging it toward zero.
//
// The mean maps linearly onto [0,1]: average score 1 -> 0, 3 -> 0.5, 5 -> 1.
// The boolean reports the completion override: projection >= 0.9 with at
// least five sessions scoring 4+.
func Project(history []core.ProtocolSession) (float64, bool) {
	sum := 0
	scored := 0
	good := 0
	for _, session := range history {
		if session.Score < minScore || session.Score > maxScore {
			continue
		}
		sum += session.Score
		scored++
		if session.Score >= 4 {
			good++
		}
	}
	if scored == 0 {
		return 0, false
	}
	avg := float64(sum) / float64(scored)
	derived := core.ClampProgress((avg - 1) / 4)
	return derived, derived >= completionProgressFloor && good >= completionGoodSessions
}

func validateSessionInput(input core.SessionInput) error {
	if strings.TrimSpace(input.Date) == "" {
		return core.ValidationError("progress: date is required")
	}
	if strings.TrimSpace(input.PieceTitle) == "" {
		return core.ValidationError("progress: piece_title is required")
	}
	if strings.TrimSpace(input.Composer) == "" {
		return core.ValidationError("progress: composer is required")
	}
	if input.Score < minScore || input.Score > maxScore {
		return core.ValidationError(
			fmt.Sprintf("progress: subjective_progress_score must be between %d and %d", minScore, maxScore),
		)
	}
	return nil
}

func validateBasicSessionInput(input core.BasicSessionInput) error {
	if strings.TrimSpace(input.Date) == "" {
		return core.ValidationError("progress: date is required")
	}
	if strings.TrimSpace(input.PieceTitle) == "" {
		return core.ValidationError("progress: piece_title is required")
	}
	if !input.StatusAfterSession.Valid() {
		return core.ValidationError(
			fmt.Sprintf("progress: invalid status_after_session %q", input.StatusAfterSession),
		)
	}
	return nil
}

func (e *Engine) nextID() string {
	if e != nil && e.newID != nil {
		return e.newID()
	}
	return uuid.NewString()
}

func nonNegative(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
