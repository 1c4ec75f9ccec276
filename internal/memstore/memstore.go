// Package memstore is an in-memory entity store for development and tests.
//
// Transactions are serialized by a single writer lock and work on a private
// copy of the state; commit swaps the copy in, an error discards it. Readers
// see the last committed snapshot and never wait on the writer lock.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/models"
)

var errForeignKey = errors.New("memstore: row still referenced or parent missing")

type state struct {
	assets    map[int]models.Asset
	logs      map[int]models.CheckoutLog
	audit     []models.AuditEntry
	materials map[int]models.Material
	users     map[int]models.User

	nextAsset, nextLog, nextAudit, nextMaterial, nextUser int
}

func newState() *state {
	return &state{
		assets:    map[int]models.Asset{},
		logs:      map[int]models.CheckoutLog{},
		materials: map[int]models.Material{},
		users:     map[int]models.User{},
	}
}

func (s *state) clone() *state {
	c := *s
	c.assets = make(map[int]models.Asset, len(s.assets))
	for k, v := range s.assets {
		c.assets[k] = v
	}
	c.logs = make(map[int]models.CheckoutLog, len(s.logs))
	for k, v := range s.logs {
		c.logs[k] = v
	}
	c.materials = make(map[int]models.Material, len(s.materials))
	for k, v := range s.materials {
		c.materials[k] = v
	}
	c.users = make(map[int]models.User, len(s.users))
	for k, v := range s.users {
		c.users[k] = v
	}
	// Entries are never modified, so the copy may share the backing array as
	// long as an append cannot write into it.
	c.audit = s.audit[:len(s.audit):len(s.audit)]
	return &c
}

// Store implements lifecycle.Store and the user store in memory.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	cur     *state
}

var _ lifecycle.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{cur: newState()}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// WithTx runs fn against a private copy of the state and publishes the copy
// only if fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	work := s.snapshot().clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = work
	s.mu.Unlock()
	return nil
}

func (s *Store) GetAsset(_ context.Context, id int) (models.Asset, error) {
	a, ok := s.snapshot().assets[id]
	if !ok {
		return models.Asset{}, lifecycle.ErrNoRecord
	}
	return a, nil
}

func (s *Store) ListAssets(_ context.Context, f lifecycle.AssetFilter) ([]models.Asset, error) {
	st := s.snapshot()
	name := strings.ToLower(strings.TrimSpace(f.Name))
	out := make([]models.Asset, 0, len(st.assets))
	for _, a := range st.assets {
		if f.Available != nil && a.Available != *f.Available {
			continue
		}
		if f.Category != "" && a.Category != f.Category {
			continue
		}
		if f.OwnerID != 0 && a.OwnerID != f.OwnerID {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(a.Name), name) {
			continue
		}
		if a.ID <= f.AfterID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func (s *Store) CheckoutLogs(_ context.Context, assetID int) ([]models.CheckoutLog, error) {
	st := s.snapshot()
	out := []models.CheckoutLog{}
	for _, l := range st.logs {
		if l.AssetID == assetID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) AuditTrail(_ context.Context, assetID, limit, offset int) ([]models.AuditEntry, error) {
	st := s.snapshot()
	out := []models.AuditEntry{}
	for i := len(st.audit) - 1; i >= 0; i-- {
		if st.audit[i].AssetID == assetID {
			out = append(out, st.audit[i])
		}
	}
	return page(out, limit, offset), nil
}

func (s *Store) RecentAudit(_ context.Context, limit, offset int) ([]models.AuditEntry, error) {
	st := s.snapshot()
	out := make([]models.AuditEntry, 0, len(st.audit))
	for i := len(st.audit) - 1; i >= 0; i-- {
		out = append(out, st.audit[i])
	}
	return page(out, limit, offset), nil
}

func (s *Store) AuditBefore(_ context.Context, beforeID, limit int) ([]models.AuditEntry, error) {
	st := s.snapshot()
	out := []models.AuditEntry{}
	for i := len(st.audit) - 1; i >= 0; i-- {
		if beforeID > 0 && st.audit[i].ID >= beforeID {
			continue
		}
		out = append(out, st.audit[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetMaterial(_ context.Context, id int) (models.Material, error) {
	m, ok := s.snapshot().materials[id]
	if !ok {
		return models.Material{}, lifecycle.ErrNoRecord
	}
	return m, nil
}

func (s *Store) ListMaterials(_ context.Context) ([]models.Material, error) {
	st := s.snapshot()
	out := make([]models.Material, 0, len(st.materials))
	for _, m := range st.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// page applies limit/offset. A limit of zero or less means no limit.
func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Ping fails only when ctx is done. It lets the memory store back /ready.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// CreateUser stores a new user. Usernames are unique.
func (s *Store) CreateUser(_ context.Context, username, passwordHash string, role models.Role) (models.User, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	work := s.snapshot().clone()
	for _, u := range work.users {
		if u.Username == username {
			return models.User{}, apperr.Conflict("username already exists")
		}
	}
	work.nextUser++
	u := models.User{ID: work.nextUser, Username: username, PasswordHash: passwordHash, Role: role}
	work.users[u.ID] = u

	s.mu.Lock()
	s.cur = work
	s.mu.Unlock()
	return u, nil
}

// GetUserByUsername looks a user up for login.
func (s *Store) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range s.snapshot().users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, apperr.NotFound("user not found")
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	st := s.snapshot()
	out := make([]models.User, 0, len(st.users))
	for _, u := range st.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetRole changes a user's role.
func (s *Store) SetRole(_ context.Context, id int, role models.Role) (models.User, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	work := s.snapshot().clone()
	u, ok := work.users[id]
	if !ok {
		return models.User{}, apperr.NotFound("user not found")
	}
	u.Role = role
	work.users[id] = u

	s.mu.Lock()
	s.cur = work
	s.mu.Unlock()
	return u, nil
}

// GetUser looks a user up by id.
func (s *Store) GetUser(_ context.Context, id int) (models.User, error) {
	u, ok := s.snapshot().users[id]
	if !ok {
		return models.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}
