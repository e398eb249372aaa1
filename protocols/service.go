// Package protocols serves the catalog surface of tracked practice
// protocols: listing, manual status edits, the admin meta projection and
// the aggregate summary.
package protocols

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-studio/core"
)

// UpdateStatusInput is the manual status edit. Progress is deliberately
// absent: it only moves through the session log or the completed pin.
// Notes and next focus are pointers so an explicit empty string clears the
// stored value while an absent field leaves it alone.
type UpdateStatusInput struct {
	Status    core.ProtocolStatus `json:"status"`
	Notes     *string             `json:"notes"`
	NextFocus *string             `json:"next_focus"`
}

// UpdateMetaInput is the admin edit of a protocol's design fields.
type UpdateMetaInput struct {
	ID                  int         `json:"id"`
	DesignStatus        DesignField `json:"design_status"`
	IsActiveForPractice *bool       `json:"is_active_for_practice"`
	AdminNotes          *string     `json:"admin_notes"`
}

// DesignField wraps the optional design status so absent and empty can be
// told apart in a PUT body.
type DesignField struct {
	Value core.DesignStatus
	Set   bool
}

func (f *DesignField) UnmarshalJSON(data []byte) error {
	f.Set = true
	value := strings.Trim(string(data), `"`)
	if value == "null" {
		f.Set = false
		return nil
	}
	f.Value = core.DesignStatus(value)
	return nil
}

type Service struct {
	store  core.ProtocolStore
	logger core.Logger
}

func NewService(store core.ProtocolStore, logger core.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("protocols: protocol store is required")
	}
	return &Service{store: store, logger: logger}, nil
}

func (s *Service) Get(ctx context.Context, id int) (core.Protocol, error) {
	if s == nil || s.store == nil {
		return core.Protocol{}, fmt.Errorf("protocols: service is not configured")
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]core.Protocol, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("protocols: service is not configured")
	}
	return s.store.List(ctx)
}

// UpdateStatus applies a manual status edit. Setting completed pins
// progress to 1 through normalization; other statuses leave the derived
// progress untouched.
func (s *Service) UpdateStatus(ctx context.Context, id int, input UpdateStatusInput) (core.Protocol, error) {
	if s == nil || s.store == nil {
		return core.Protocol{}, fmt.Errorf("protocols: service is not configured")
	}
	if !input.Status.Valid() {
		return core.Protocol{}, core.ValidationError(fmt.Sprintf("protocols: invalid status %q", input.Status))
	}
	protocol, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Protocol{}, err
	}
	protocol.Status = input.Status
	if input.Notes != nil {
		protocol.Notes = *input.Notes
	}
	if input.NextFocus != nil {
		protocol.NextFocus = *input.NextFocus
	}
	protocol.Normalize()
	if err := s.store.Save(ctx, protocol); err != nil {
		return core.Protocol{}, err
	}
	core.LogWith(ctx, s.logger, "info", "protocol status updated", map[string]any{
		"protocol_id": id,
		"status":      string(protocol.Status),
	})
	return protocol, nil
}

// Meta lists the administrative projection of every protocol.
func (s *Service) Meta(ctx context.Context) ([]core.ProtocolMeta, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("protocols: service is not configured")
	}
	protocols, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.ProtocolMeta, 0, len(protocols))
	for _, protocol := range protocols {
		out = append(out, protocol.Meta())
	}
	return out, nil
}

// UpdateMeta applies an admin edit to the design fields. Status and
// progress are untouchable from this path.
func (s *Service) UpdateMeta(ctx context.Context, input UpdateMetaInput) (core.ProtocolMeta, error) {
	if s == nil || s.store == nil {
		return core.ProtocolMeta{}, fmt.Errorf("protocols: service is not configured")
	}
	if input.DesignStatus.Set && !input.DesignStatus.Value.Valid() {
		return core.ProtocolMeta{}, core.ValidationError(
			fmt.Sprintf("protocols: invalid design_status %q", input.DesignStatus.Value),
		)
	}
	protocol, err := s.store.Get(ctx, input.ID)
	if err != nil {
		return core.ProtocolMeta{}, err
	}
	if input.DesignStatus.Set {
		protocol.DesignStatus = input.DesignStatus.Value
	}
	if input.IsActiveForPractice != nil {
		protocol.IsActiveForPractice = *input.IsActiveForPractice
	}
	if input.AdminNotes != nil {
		protocol.AdminNotes = *input.AdminNotes
	}
	if err := s.store.Save(ctx, protocol); err != nil {
		return core.ProtocolMeta{}, err
	}
	core.LogWith(ctx, s.logger, "info", "protocol meta updated", map[string]any{
		"protocol_id": input.ID,
	})
	return protocol.Meta(), nil
}

// Summary aggregates the catalog: per-status counts, the number active for
// practice and the mean progress across all protocols.
func (s *Service) Summary(ctx context.Context) (core.ProtocolSummary, error) {
	if s == nil || s.store == nil {
		return core.ProtocolSummary{}, fmt.Errorf("protocols: service is not configured")
	}
	protocols, err := s.store.List(ctx)
	if err != nil {
		return core.ProtocolSummary{}, err
	}
	summary := core.ProtocolSummary{Total: len(protocols)}
	progressSum := 0.0
	for _, protocol := range protocols {
		switch protocol.Status {
		case core.ProtocolStatusNotStarted:
			summary.NotStarted++
		case core.ProtocolStatusInProgress:
			summary.InProgress++
		case core.ProtocolStatusCompleted:
			summary.Completed++
		}
		if protocol.IsActiveForPractice {
			summary.ActiveForPractice++
		}
		progressSum += protocol.Progress
	}
	if summary.Total > 0 {
		summary.AverageProgress = progressSum / float64(summary.Total)
	}
	return summary, nil
}
