package browse

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/orthodeskhq/orthodesk-backend/internal/platformspec"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

// Crumb is one breadcrumb entry on the path from root to the current folder.
type Crumb struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SelectedAsset caches the backing object alongside the selected identifier,
// so the consumer can use names and types without re-fetching.
type SelectedAsset struct {
	ID        uuid.UUID       `json:"id"`
	FileName  string          `json:"file_name"`
	MimeType  string          `json:"mime_type"`
	SizeBytes int64           `json:"size_bytes"`
	Kind      enums.MediaKind `json:"kind"`
}

// Picker is the server-side state of one open media-picker dialog. It lives
// in Redis with a TTL; nothing survives between opens except what the caller
// passes back in as a preselection.
type Picker struct {
	ID         uuid.UUID        `json:"id"`
	PracticeID uuid.UUID        `json:"practice_id"`
	UserID     uuid.UUID        `json:"user_id"`
	Platforms  []enums.Platform `json:"platforms,omitempty"`
	// Constrained is set when the picker was opened from the post composer,
	// which passes platforms; the general library picker is unconstrained.
	Constrained  bool            `json:"constrained"`
	MaxSelection int             `json:"max_selection,omitempty"`
	Breadcrumb   []Crumb         `json:"breadcrumb"`
	Search       string          `json:"search,omitempty"`
	KindFilter   string          `json:"kind_filter,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Selected     []SelectedAsset `json:"selected"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CurrentFolder returns the folder the picker is looking at, nil for root.
func (p *Picker) CurrentFolder() *uuid.UUID {
	if len(p.Breadcrumb) == 0 {
		return nil
	}
	return &p.Breadcrumb[len(p.Breadcrumb)-1].ID
}

// Constraint returns the effective envelope for a constrained picker, nil
// otherwise.
func (p *Picker) Constraint() *platformspec.Constraint {
	if !p.Constrained {
		return nil
	}
	c := platformspec.Effective(p.Platforms)
	return &c
}

// IsSelected reports whether the asset is in the selection set.
func (p *Picker) IsSelected(id uuid.UUID) bool {
	for _, s := range p.Selected {
		if s.ID == id {
			return true
		}
	}
	return false
}

type pickerKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type pickerKeyer interface {
	PickerSessionKey(sessionID string) string
}

type pickerStore struct {
	kv    pickerKV
	keyer pickerKeyer
	ttl   time.Duration
}

func (s *pickerStore) save(ctx context.Context, picker *Picker) error {
	raw, err := json.Marshal(picker)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode picker session")
	}
	if err := s.kv.Set(ctx, s.keyer.PickerSessionKey(picker.ID.String()), raw, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store picker session")
	}
	return nil
}

func (s *pickerStore) load(ctx context.Context, pickerID uuid.UUID) (*Picker, error) {
	raw, err := s.kv.Get(ctx, s.keyer.PickerSessionKey(pickerID.String()))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "picker session not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch picker session")
	}
	var picker Picker
	if err := json.Unmarshal([]byte(raw), &picker); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode picker session")
	}
	return &picker, nil
}

func (s *pickerStore) delete(ctx context.Context, pickerID uuid.UUID) error {
	if err := s.kv.Del(ctx, s.keyer.PickerSessionKey(pickerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete picker session")
	}
	return nil
}
