package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/ports"
)

const sessionKeyPrefix = "voicebank:session:"

// SessionRepository stores one JSON value per user in Redis, for multi-node
// deployments where the file backend cannot be shared. The value TTL is the
// session timeout plus slack; the authoritative expiry check stays with the
// session store.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewSessionRepository(url string, sessionTimeout time.Duration, log *zap.Logger) (ports.SessionRepository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Connected to Redis session backend")
	return &SessionRepository{
		client: client,
		// Keep records past logical expiry so the lazy check can observe and
		// delete them itself.
		ttl: sessionTimeout * 2,
		log: log,
	}, nil
}

func (r *SessionRepository) Load(ctx context.Context, userID string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		r.log.Warn("Discarding corrupt session record",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s", domain.ErrCorruptRecord, userID)
	}
	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.client.Set(ctx, sessionKeyPrefix+session.UserID, data, r.ttl).Err()
}

func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, sessionKeyPrefix+userID).Err()
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *SessionRepository) Close() error {
	return r.client.Close()
}
