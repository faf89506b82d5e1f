package uploads

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

// PendingFile is a staged file descriptor inside an upload session. Reason is
// empty when the file passed validation against the session's constraint.
type PendingFile struct {
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Reason    string `json:"reason,omitempty"`
}

// Valid reports whether the file passed validation.
func (f PendingFile) Valid() bool { return f.Reason == "" }

// Session is the server-side staging area backing the upload modal. It lives
// in Redis with a TTL so abandoned modals clean themselves up.
type Session struct {
	ID         uuid.UUID        `json:"id"`
	PracticeID uuid.UUID        `json:"practice_id"`
	UserID     uuid.UUID        `json:"user_id"`
	Platforms  []enums.Platform `json:"platforms"`
	Files      []PendingFile    `json:"files"`
	Submitted  bool             `json:"submitted"`
	// Progress climbs from 0 to 90 while Submit registers and signs the valid
	// files, and reaches 100 only once the whole submit has succeeded.
	Progress  int       `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
}

// Constraint derives the effective envelope for the session's platforms.
func (s *Session) Constraint() platformspec.Constraint {
	return platformspec.Effective(s.Platforms)
}

// ValidCount returns how many staged files currently pass validation.
func (s *Session) ValidCount() int {
	n := 0
	for _, f := range s.Files {
		if f.Valid() {
			n++
		}
	}
	return n
}

type sessionKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	UploadSessionKey(sessionID string) string
}

type sessionStore struct {
	kv    sessionKV
	keyer sessionKeyer
	ttl   time.Duration
}

func (s *sessionStore) save(ctx context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode upload session")
	}
	if err := s.kv.Set(ctx, s.keyer.UploadSessionKey(session.ID.String()), raw, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload session")
	}
	return nil
}

func (s *sessionStore) load(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	raw, err := s.kv.Get(ctx, s.keyer.UploadSessionKey(sessionID.String()))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "upload session not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch upload session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode upload session")
	}
	return &session, nil
}

func (s *sessionStore) delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.kv.Del(ctx, s.keyer.UploadSessionKey(sessionID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete upload session")
	}
	return nil
}
