package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"hwportal/internal/platform/querier"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyStore remembers the response produced for an owner's key on an
// endpoint so a retried request can be answered without repeating it.
type IdempotencyStore interface {
	Check(ctx context.Context, ownerID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, ownerID, endpoint, key, requestHash string, response json.RawMessage) error
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

type PgIdempotencyStore struct {
	db querier.Querier
}

func NewPgIdempotencyStore(db querier.Querier) *PgIdempotencyStore {
	return &PgIdempotencyStore{db: db}
}

func (s *PgIdempotencyStore) Check(ctx context.Context, ownerID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	var storedHash string
	var stored json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE owner_id = $1 AND endpoint = $2 AND key = $3
  `, ownerID, endpoint, key).Scan(&storedHash, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (s *PgIdempotencyStore) Save(ctx context.Context, ownerID, endpoint, key, requestHash string, response json.RawMessage) error {
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (owner_id, endpoint, key, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (owner_id, endpoint, key)
    DO UPDATE SET response_json = EXCLUDED.response_json
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, ownerID, endpoint, key, requestHash, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Prune removes keys older than retention.
func (s *PgIdempotencyStore) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type idempotencyEntry struct {
	hash     string
	response json.RawMessage
}

type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idempotencyEntry
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: map[string]idempotencyEntry{}}
}

func (s *MemoryIdempotencyStore) Check(_ context.Context, ownerID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ownerID+"\x00"+endpoint+"\x00"+key]
	if !ok {
		return nil, false, nil
	}
	if entry.hash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return entry.response, true, nil
}

func (s *MemoryIdempotencyStore) Save(_ context.Context, ownerID, endpoint, key, requestHash string, response json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ownerID + "\x00" + endpoint + "\x00" + key
	if entry, ok := s.entries[id]; ok && entry.hash != requestHash {
		return ErrIdempotencyConflict
	}
	s.entries[id] = idempotencyEntry{hash: requestHash, response: response}
	return nil
}
