// Package servicestest provides in-memory repositories for tests of the
// services and of the HTTP handlers built on them.
package servicestest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/barklazza/projeto-vendas/internal/store"
	"github.com/barklazza/projeto-vendas/types"
)

// Users is an in-memory UserRepository.
type Users struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]types.User
	Err    error
}

func NewUsers() *Users {
	return &Users{byID: make(map[int]types.User)}
}

func (u *Users) GetByID(_ context.Context, id int) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return types.User{}, u.Err
	}
	user, ok := u.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (u *Users) GetByOpenID(_ context.Context, openID string) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return types.User{}, store.ErrNotFound
	}
	for _, user := range u.byID {
		if user.OpenID == openID {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (u *Users) List(_ context.Context) ([]types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	users := make([]types.User, 0, len(u.byID))
	for _, user := range u.byID {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		ei, ej := users[i].Email, users[j].Email
		switch {
		case ei != nil && ej == nil:
			return true
		case ei == nil && ej != nil:
			return false
		case ei != nil && *ei != *ej:
			return *ei < *ej
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (u *Users) Upsert(_ context.Context, identity types.Identity) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return types.User{}, u.Err
	}

	now := time.Now()
	user, found := u.findLocked(identity.OpenID)
	if !found {
		u.nextID++
		user = types.User{ID: u.nextID, OpenID: identity.OpenID, Role: types.RoleUser, CreatedAt: now}
	}
	if identity.Name != nil {
		user.Name = identity.Name
	}
	if identity.Email != nil {
		user.Email = identity.Email
	}
	if identity.LoginMethod != nil {
		user.LoginMethod = identity.LoginMethod
	}
	if identity.Role != nil {
		user.Role = *identity.Role
	}
	user.UpdatedAt = now
	user.LastSignedIn = identity.LastSignedIn
	if user.LastSignedIn.IsZero() {
		user.LastSignedIn = now
	}
	u.byID[user.ID] = user
	return user, nil
}

func (u *Users) EnsureRole(_ context.Context, openID, role string) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return types.User{}, u.Err
	}
	user, found := u.findLocked(openID)
	if !found {
		u.nextID++
		now := time.Now()
		user = types.User{ID: u.nextID, OpenID: openID, CreatedAt: now, LastSignedIn: now}
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	u.byID[user.ID] = user
	return user, nil
}

// Add stores user as is and returns it with an id.
func (u *Users) Add(user types.User) types.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nextID++
	user.ID = u.nextID
	if user.Role == "" {
		user.Role = types.RoleUser
	}
	u.byID[user.ID] = user
	return user
}

func (u *Users) findLocked(openID string) (types.User, bool) {
	for _, user := range u.byID {
		if user.OpenID == openID {
			return user, true
		}
	}
	return types.User{}, false
}

// Sales is an in-memory SaleRepository.
type Sales struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.Sale
	Err    error
}

func NewSales() *Sales {
	return &Sales{rows: make(map[int]types.Sale)}
}

func (s *Sales) Create(_ context.Context, sale types.Sale) (types.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return types.Sale{}, s.Err
	}
	s.nextID++
	sale.ID = s.nextID
	sale.CreatedAt = time.Now()
	sale.UpdatedAt = sale.CreatedAt
	s.rows[sale.ID] = sale
	return sale, nil
}

func (s *Sales) ListByOwner(_ context.Context, ownerID int) ([]types.Sale, error) {
	return s.list(func(sale types.Sale) bool { return sale.UserID == ownerID })
}

func (s *Sales) ListAll(_ context.Context) ([]types.Sale, error) {
	return s.list(func(types.Sale) bool { return true })
}

func (s *Sales) Update(_ context.Context, id, ownerID int, patch types.SalePatch) error {
	return s.update(id, &ownerID, patch)
}

func (s *Sales) UpdateAny(_ context.Context, id int, patch types.SalePatch) error {
	return s.update(id, nil, patch)
}

func (s *Sales) Delete(_ context.Context, id, ownerID int) error {
	return s.remove(id, &ownerID)
}

func (s *Sales) DeleteAny(_ context.Context, id int) error {
	return s.remove(id, nil)
}

func (s *Sales) list(keep func(types.Sale) bool) ([]types.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]types.Sale, 0)
	for _, sale := range s.rows {
		if keep(sale) {
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.After(out[j].PaymentDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Sales) update(id int, ownerID *int, patch types.SalePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if patch.IsEmpty() {
		return store.ErrEmptyPatch
	}
	sale, ok := s.rows[id]
	if !ok || (ownerID != nil && sale.UserID != *ownerID) {
		return store.ErrNotFound
	}
	if patch.ProductCode != nil {
		sale.ProductCode = *patch.ProductCode
	}
	if patch.ClientName != nil {
		sale.ClientName = *patch.ClientName
	}
	if patch.Type != nil {
		sale.Type = *patch.Type
	}
	if patch.Value != nil {
		sale.Value = *patch.Value
	}
	if patch.PaymentMethod != nil {
		sale.PaymentMethod = *patch.PaymentMethod
	}
	if patch.PaymentDate != nil {
		sale.PaymentDate = *patch.PaymentDate
	}
	sale.UpdatedAt = time.Now()
	s.rows[id] = sale
	return nil
}

func (s *Sales) remove(id int, ownerID *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	sale, ok := s.rows[id]
	if !ok || (ownerID != nil && sale.UserID != *ownerID) {
		return store.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// Backups is an in-memory BackupRepository.
type Backups struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.Backup
	Err    error
}

func NewBackups() *Backups {
	return &Backups{rows: make(map[int]types.Backup)}
}

func (b *Backups) Create(_ context.Context, backup types.Backup) (types.Backup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return types.Backup{}, b.Err
	}
	b.nextID++
	backup.ID = b.nextID
	backup.CreatedAt = time.Now()
	b.rows[backup.ID] = backup
	return backup, nil
}

func (b *Backups) ListByOwner(_ context.Context, ownerID int) ([]types.Backup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	out := make([]types.Backup, 0)
	for _, backup := range b.rows {
		if backup.UserID == ownerID {
			out = append(out, backup)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (b *Backups) Get(_ context.Context, id, ownerID int) (types.Backup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return types.Backup{}, b.Err
	}
	backup, ok := b.rows[id]
	if !ok || backup.UserID != ownerID {
		return types.Backup{}, store.ErrNotFound
	}
	return backup, nil
}

func (b *Backups) Delete(_ context.Context, id, ownerID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	backup, ok := b.rows[id]
	if !ok || backup.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(b.rows, id)
	return nil
}

// Count returns the number of stored records.
func (b *Backups) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rows)
}

// Archive is an in-memory object store.
type Archive struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewArchive() *Archive {
	return &Archive{Objects: make(map[string][]byte)}
}

func (a *Archive) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Objects[key] = data
	return nil
}

func (a *Archive) Get(_ context.Context, key string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.Objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *Archive) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.Objects, key)
	return nil
}

// Event is a published audit event.
type Event struct {
	Type    string
	ActorID int
	Subject map[string]any
}

// Events records published audit events.
type Events struct {
	mu     sync.Mutex
	events []Event
}

func (e *Events) Publish(_ context.Context, eventType string, actorID int, subject map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, Event{Type: eventType, ActorID: actorID, Subject: subject})
}

// Types lists the published event types in order.
func (e *Events) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}
