// Package memstore is an in-memory store.Store for tests and demos.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"foodshare-api/models"
	"foodshare-api/store"

	"github.com/google/uuid"
)

type data struct {
	users         map[string]models.User
	donations     map[string]models.Donation
	claims        map[string]models.Claim
	pickups       map[string]models.Pickup
	notifications map[string]models.Notification
}

func newData() *data {
	return &data{
		users:         map[string]models.User{},
		donations:     map[string]models.Donation{},
		claims:        map[string]models.Claim{},
		pickups:       map[string]models.Pickup{},
		notifications: map[string]models.Notification{},
	}
}

// state is shared by a Store and the views Atomic hands to its callback.
type state struct {
	mu   sync.Mutex
	txMu sync.Mutex
	d    *data
	now  func() time.Time
}

// Store keeps every record in maps guarded by one mutex. Atomic sections are
// serialized against each other. On error only the writes made inside the
// section are undone; writes made outside it stay.
type Store struct {
	*state
	undo *[]func()
}

func New() *Store {
	return &Store{state: &state{d: newData(), now: func() time.Time { return time.Now().UTC() }}}
}

func (s *Store) Users() store.Users                 { return users{s} }
func (s *Store) Donations() store.Donations         { return donations{s} }
func (s *Store) Claims() store.Claims               { return claims{s} }
func (s *Store) Pickups() store.Pickups             { return pickups{s} }
func (s *Store) Notifications() store.Notifications { return notifications{s} }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if s.undo != nil {
		return fn(s)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &Store{state: s.state, undo: &[]func(){}}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		for i := len(*tx.undo) - 1; i >= 0; i-- {
			(*tx.undo)[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// journal records how to restore m[key]. Callers hold mu.
func journal[T any](s *Store, m map[string]T, key string) {
	if s.undo == nil {
		return
	}
	prev, had := m[key]
	*s.undo = append(*s.undo, func() {
		if had {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

func put[T any](s *Store, m map[string]T, key string, v T) {
	journal(s, m, key)
	m[key] = v
}

func del[T any](s *Store, m map[string]T, key string) {
	journal(s, m, key)
	delete(m, key)
}

func (s *Store) stamp(created, updated *time.Time) {
	now := s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

// ── Users ───────────────────────────────────────────────────────────────────

type users struct{ s *Store }

func (r users) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.d.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	r.s.stamp(&u.CreatedAt, &u.UpdatedAt)
	put(r.s, r.s.d.users, u.ID, *u)
	return nil
}

func (r users) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r users) Update(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.d.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Name, existing.Phone, existing.Organization = u.Name, u.Phone, u.Organization
	r.s.stamp(nil, &existing.UpdatedAt)
	put(r.s, r.s.d.users, u.ID, existing)
	*u = existing
	return nil
}

func (r users) List(ctx context.Context, f store.UserFilter) ([]models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.User
	for _, u := range r.s.d.users {
		if f.Role == "" || u.Role == f.Role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if f.Limit > 0 {
		out = page(out, f.Offset, f.Limit)
	}
	return out, total, nil
}

func (r users) CountByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[models.UserRole]int64{}
	for _, u := range r.s.d.users {
		counts[u.Role]++
	}
	return counts, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── Donations ───────────────────────────────────────────────────────────────

type donations struct{ s *Store }

func (r donations) Create(ctx context.Context, d *models.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Version == 0 {
		d.Version = 1
	}
	r.s.stamp(&d.CreatedAt, &d.UpdatedAt)
	put(r.s, r.s.d.donations, d.ID, *d)
	return nil
}

func (r donations) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.d.donations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (r donations) Save(ctx context.Context, d *models.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.d.donations[d.ID]
	if !ok || existing.Version != d.Version {
		return store.ErrStale
	}
	d.Version++
	r.s.stamp(nil, &d.UpdatedAt)
	put(r.s, r.s.d.donations, d.ID, *d)
	return nil
}

func (r donations) Delete(ctx context.Context, d *models.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.d.donations[d.ID]
	if !ok || existing.Version != d.Version {
		return store.ErrStale
	}
	del(r.s, r.s.d.donations, d.ID)
	return nil
}

func (r donations) List(ctx context.Context, f store.DonationFilter) ([]models.Donation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	foodType := strings.ToLower(f.FoodType)
	var out []models.Donation
	for _, d := range r.s.d.donations {
		switch {
		case f.DonorID != "" && d.DonorID != f.DonorID:
		case foodType != "" && !strings.Contains(strings.ToLower(d.FoodType), foodType):
		case f.Status != "" && d.Status != f.Status:
		case !f.ExpiresAfter.IsZero() && !d.ExpiryTime.After(f.ExpiresAfter):
		default:
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ── Claims ──────────────────────────────────────────────────────────────────

type claims struct{ s *Store }

func (r claims) Create(ctx context.Context, c *models.Claim) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	r.s.stamp(&c.CreatedAt, &c.UpdatedAt)
	put(r.s, r.s.d.claims, c.ID, *c)
	return nil
}

func (r claims) FindByID(ctx context.Context, id string) (*models.Claim, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.d.claims[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (r claims) Save(ctx context.Context, c *models.Claim) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.d.claims[c.ID]
	if !ok || existing.Version != c.Version {
		return store.ErrStale
	}
	c.Version++
	r.s.stamp(nil, &c.UpdatedAt)
	put(r.s, r.s.d.claims, c.ID, *c)
	return nil
}

func (r claims) ListByNGO(ctx context.Context, ngoID string) ([]models.Claim, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Claim
	for _, c := range r.s.d.claims {
		if c.NGOID == ngoID {
			out = append(out, c)
		}
	}
	sortClaims(out)
	return out, nil
}

func (r claims) List(ctx context.Context) ([]models.Claim, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Claim, 0, len(r.s.d.claims))
	for _, c := range r.s.d.claims {
		out = append(out, c)
	}
	sortClaims(out)
	return out, nil
}

func sortClaims(list []models.Claim) {
	sort.Slice(list, func(i, j int) bool { return list[i].ClaimedAt.After(list[j].ClaimedAt) })
}

// ── Pickups ─────────────────────────────────────────────────────────────────

type pickups struct{ s *Store }

func (r pickups) Create(ctx context.Context, p *models.Pickup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.d.pickups {
		if existing.ClaimID == p.ClaimID {
			return store.ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	r.s.stamp(&p.CreatedAt, &p.UpdatedAt)
	put(r.s, r.s.d.pickups, p.ID, *p)
	return nil
}

func (r pickups) FindByID(ctx context.Context, id string) (*models.Pickup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.d.pickups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (r pickups) FindByClaim(ctx context.Context, claimID string) (*models.Pickup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.d.pickups {
		if p.ClaimID == claimID {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r pickups) Save(ctx context.Context, p *models.Pickup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.d.pickups[p.ID]
	if !ok || existing.Version != p.Version {
		return store.ErrStale
	}
	p.Version++
	r.s.stamp(nil, &p.UpdatedAt)
	put(r.s, r.s.d.pickups, p.ID, *p)
	return nil
}

func (r pickups) List(ctx context.Context, f store.PickupFilter) ([]models.Pickup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Pickup
	for _, p := range r.s.d.pickups {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.VolunteerID != "" && !p.AssignedTo(f.VolunteerID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// ── Notifications ───────────────────────────────────────────────────────────

type notifications struct{ s *Store }

func (r notifications) Create(ctx context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	r.s.stamp(&n.CreatedAt, nil)
	put(r.s, r.s.d.notifications, n.ID, *n)
	return nil
}

func (r notifications) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.d.notifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (r notifications) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Notification
	for _, n := range r.s.d.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r notifications) MarkRead(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.d.notifications[id]
	if !ok {
		return store.ErrNotFound
	}
	n.Read = true
	put(r.s, r.s.d.notifications, id, n)
	return nil
}

func (r notifications) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var changed int64
	for id, n := range r.s.d.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			put(r.s, r.s.d.notifications, id, n)
			changed++
		}
	}
	return changed, nil
}
