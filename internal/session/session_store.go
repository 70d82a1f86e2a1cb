// Package session holds parsed-but-unconfirmed uploads between the upload
// request and the reviewer's apply request. State lives in Redis with a TTL
// so an abandoned review expires on its own.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-fieldpay/internal/calc"
	"go-fieldpay/internal/ingest"
	"go-fieldpay/internal/order"
	"go-fieldpay/internal/reconcile"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "payrun:review:"
	defaultTTL = 2 * time.Hour
)

// ErrNotFound means the review session expired or never existed.
var ErrNotFound = errors.New("session: not found")

// Review is everything needed to finish an upload after the reviewer
// confirms: the parsed batch, the preview diff, and the effective config.
type Review struct {
	PeriodLabel     string                 `json:"period_label"`
	FileNameUnder   string                 `json:"file_name_under"`
	FileNameOver    string                 `json:"file_name_over"`
	Records         []order.Record         `json:"records"`
	NameMap         map[string]string      `json:"name_map"`
	Workers         []string               `json:"workers"`
	ManagerComments []ingest.ManagerComment `json:"manager_comments,omitempty"`
	Warnings        []string               `json:"warnings,omitempty"`
	Diff            reconcile.Summary      `json:"diff"`
	Config          calc.Config            `json:"config"`
	PrevUploadID    string                 `json:"prev_upload_id,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewStore(rdb *redis.Client, log *zap.Logger) *Store {
	return &Store{rdb: rdb, ttl: defaultTTL, log: log.Named("session.store")}
}

func (s *Store) Save(ctx context.Context, id string, rev Review) error {
	payload, err := json.Marshal(rev)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		s.log.Error("save review session failed", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("session: save: %w", err)
	}
	s.log.Debug("review session saved",
		zap.String("session_id", id),
		zap.String("period", rev.PeriodLabel),
		zap.Int("records", len(rev.Records)),
	)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Review, error) {
	val, err := s.rdb.Get(ctx, keyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}
	var rev Review
	if err := json.Unmarshal([]byte(val), &rev); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &rev, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
