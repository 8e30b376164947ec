// Package memory provides map-backed implementations of the repository
// interfaces. They serve prototype mode (no DB_HOST configured) and tests;
// a mutex serializes access so the handlers can run concurrently.
package memory

import (
	"context"
	"sort"
	"sync"

	"papertrail/internal/model"
	"papertrail/internal/repository"
)

// UserMemory is an in-memory repository.UserRepository.
type UserMemory struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserMemory() *UserMemory {
	return &UserMemory{users: make(map[string]model.User)}
}

var _ repository.UserRepository = (*UserMemory)(nil)

func (r *UserMemory) Create(ctx context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *user
	r.users[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *UserMemory) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserMemory) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	return &out, nil
}

// DocumentMemory is an in-memory repository.DocumentRepository.
type DocumentMemory struct {
	mu   sync.RWMutex
	docs map[string]model.Document
}

func NewDocumentMemory() *DocumentMemory {
	return &DocumentMemory{docs: make(map[string]model.Document)}
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

func (r *DocumentMemory) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *doc
	r.docs[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *DocumentMemory) FindByID(ctx context.Context, id string) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := d
	return &out, nil
}

func (r *DocumentMemory) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *DocumentMemory) ListByOwner(ctx context.Context, userID string) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]model.Document, 0)
	for _, d := range r.docs {
		if d.UserID == userID {
			items = append(items, d)
		}
	}
	sortNewestFirst(items, func(d model.Document) sortKey { return sortKey{d.CreatedAt.UnixNano(), d.ID} })
	return items, nil
}

// PermissionMemory is an in-memory repository.PermissionRepository.
type PermissionMemory struct {
	mu     sync.RWMutex
	grants map[string]model.Permission
}

func NewPermissionMemory() *PermissionMemory {
	return &PermissionMemory{grants: make(map[string]model.Permission)}
}

var _ repository.PermissionRepository = (*PermissionMemory)(nil)

func (r *PermissionMemory) Create(ctx context.Context, perm *model.Permission) (*model.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *perm
	r.grants[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *PermissionMemory) ListByDocument(ctx context.Context, documentID string, onlyActive bool) ([]model.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]model.Permission, 0)
	for _, p := range r.grants {
		if p.DocumentID != documentID {
			continue
		}
		if onlyActive && !p.IsActive {
			continue
		}
		items = append(items, p)
	}
	sortNewestFirst(items, func(p model.Permission) sortKey { return sortKey{p.CreatedAt.UnixNano(), p.ID} })
	return items, nil
}

func (r *PermissionMemory) Deactivate(ctx context.Context, id, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.grants[id]
	if !ok || p.DocumentID != documentID {
		return repository.ErrNotFound
	}
	p.IsActive = false
	r.grants[id] = p
	return nil
}

// AuditLogMemory is an in-memory repository.AuditLogRepository. The backing
// slice is append-only, matching the interface contract.
type AuditLogMemory struct {
	mu      sync.RWMutex
	entries []model.AuditLogEntry
}

func NewAuditLogMemory() *AuditLogMemory {
	return &AuditLogMemory{}
}

var _ repository.AuditLogRepository = (*AuditLogMemory)(nil)

func (r *AuditLogMemory) Append(ctx context.Context, entry *model.AuditLogEntry) (*model.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *entry
	if stored.Metadata == nil {
		stored.Metadata = map[string]string{}
	}
	r.entries = append(r.entries, stored)
	out := stored
	return &out, nil
}

func (r *AuditLogMemory) ListByDocument(ctx context.Context, documentID string) ([]model.AuditLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]model.AuditLogEntry, 0)
	for _, e := range r.entries {
		if e.DocumentID == documentID {
			items = append(items, e)
		}
	}
	// Entries are appended in order; reverse to newest-first. Insertion index
	// breaks ties between entries created in the same nanosecond.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

type sortKey struct {
	unixNano int64
	id       string
}

func sortNewestFirst[T any](items []T, key func(T) sortKey) {
	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := key(items[i]), key(items[j])
		if ki.unixNano != kj.unixNano {
			return ki.unixNano > kj.unixNano
		}
		return ki.id > kj.id
	})
}
