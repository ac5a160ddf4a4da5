package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/marketplace/internal/domain/user"
)

type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User
	order   []string
	byEmail map[string]string
	byToken map[string]string
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
		byToken: make(map[string]string),
	}
}

// Create fails with user.ErrEmailTaken when the normalized email exists; the
// check and insert happen under one lock.
func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	u.Email = user.NormalizeEmail(u.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return user.User{}, user.ErrEmailTaken
	}

	r.items[u.ID] = u
	r.order = append(r.order, u.ID)
	r.byEmail[u.Email] = u.ID
	r.byToken[u.Token] = u.ID

	return u, nil
}

func (r *UsersRepo) lookup(index map[string]string, key string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[key]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.items[id], nil
}

func (r *UsersRepo) FindByToken(_ context.Context, token string) (user.User, error) {
	if token == "" {
		return user.User{}, user.ErrNotFound
	}
	return r.lookup(r.byToken, token)
}

func (r *UsersRepo) FindByEmail(_ context.Context, email string) (user.User, error) {
	return r.lookup(r.byEmail, user.NormalizeEmail(email))
}

func (r *UsersRepo) FindByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}

	return out, nil
}

func (r *UsersRepo) Save(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[u.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	cur.Username = u.Username
	cur.AvatarURL = u.AvatarURL
	cur.UpdatedAt = time.Now().UTC()
	r.items[u.ID] = cur

	return cur, nil
}
