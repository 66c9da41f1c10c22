package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/ports"
)

// SessionRepository stores one indented JSON file per user under dir, so an
// operator can inspect and hand-edit a session while debugging. Records that
// fail to decode are reported as not-found, never as fatal errors.
type SessionRepository struct {
	dir string
	log *zap.Logger
}

func NewSessionRepository(dir string, log *zap.Logger) (ports.SessionRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &SessionRepository{dir: dir, log: log}, nil
}

func (r *SessionRepository) Load(ctx context.Context, userID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path(userID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		r.log.Warn("Discarding corrupt session record",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s", domain.ErrCorruptRecord, userID)
	}
	if session.UserID == "" {
		session.UserID = userID
	}
	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	// Write-then-rename keeps the record readable even if the process dies
	// mid-write.
	target := r.path(session.UserID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(r.path(userID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	_, err := os.Stat(r.dir)
	return err
}

func (r *SessionRepository) Close() error { return nil }

// path maps a user ID to its record file. User IDs are phone numbers; the
// replacement guards against separators sneaking into the file name.
func (r *SessionRepository) path(userID string) string {
	safe := strings.Map(func(c rune) rune {
		switch c {
		case '/', '\\', ':', '.', 0:
			return '_'
		}
		return c
	}, userID)
	return filepath.Join(r.dir, safe+".json")
}
