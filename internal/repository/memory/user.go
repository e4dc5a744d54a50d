package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]user.User
}

var _ user.Directory = (*UserStore)(nil)

func NewUserStore(users ...user.User) *UserStore {
	s := &UserStore{users: make(map[string]user.User, len(users))}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Put adds or replaces a user.
func (s *UserStore) Put(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// GetByID implements user.Directory.
func (s *UserStore) GetByID(_ context.Context, userID string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

// GetRole implements user.Directory.
func (s *UserStore) GetRole(ctx context.Context, userID string) (user.Role, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// FindUsersByRole implements user.Directory.
func (s *UserStore) FindUsersByRole(_ context.Context, organizationID string, roles []user.Role) ([]user.User, error) {
	if organizationID == "" {
		return nil, user.ErrOrganizationIDRequired
	}
	wanted := make(map[user.Role]bool, len(roles))
	for _, r := range roles {
		wanted[r] = true
	}

	s.mu.RLock()
	var out []user.User
	for _, u := range s.users {
		if u.OrganizationID == organizationID && wanted[u.Role] {
			out = append(out, u)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
