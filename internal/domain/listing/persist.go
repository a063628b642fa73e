package listing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"

	"hwportal/internal/platform/querier"
)

// FilterPersister remembers each user's filters per module.
type FilterPersister interface {
	Load(ctx context.Context, owner, module string) (Filters, bool, error)
	Save(ctx context.Context, owner, module string, f Filters) error
}

type MemoryPersister struct {
	mu      sync.Mutex
	filters map[string]Filters
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{filters: map[string]Filters{}}
}

func (p *MemoryPersister) Load(ctx context.Context, owner, module string) (Filters, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.filters[owner+"\x00"+module]
	return f.clone(), ok, nil
}

func (p *MemoryPersister) Save(ctx context.Context, owner, module string, f Filters) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filters[owner+"\x00"+module] = f.clone()
	return nil
}

// PgPersister stores filters in list_filter_preferences.
type PgPersister struct {
	DB querier.Querier
}

func NewPgPersister(db querier.Querier) *PgPersister {
	return &PgPersister{DB: db}
}

func (p *PgPersister) Load(ctx context.Context, owner, module string) (Filters, bool, error) {
	var raw []byte
	err := p.DB.QueryRow(ctx, `
    SELECT filters_json
    FROM list_filter_preferences
    WHERE owner_id = $1 AND module = $2
  `, owner, module).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Filters{}, false, nil
	}
	if err != nil {
		return Filters{}, false, err
	}
	var f Filters
	if err := json.Unmarshal(raw, &f); err != nil {
		return Filters{}, false, err
	}
	return f, true, nil
}

func (p *PgPersister) Save(ctx context.Context, owner, module string, f Filters) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = p.DB.Exec(ctx, `
    INSERT INTO list_filter_preferences (owner_id, module, filters_json, updated_at)
    VALUES ($1, $2, $3, now())
    ON CONFLICT (owner_id, module)
    DO UPDATE SET filters_json = EXCLUDED.filters_json, updated_at = now()
  `, owner, module, raw)
	return err
}
