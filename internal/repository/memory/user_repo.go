package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
)

// userRepo はstateに直接作用するユーザーリポジトリ。ロックは呼び出し側が保持する。
type userRepo struct {
	st *state
}

func (r *userRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) FindByName(_ context.Context, name string) (*model.User, error) {
	for _, u := range r.st.users {
		if u.Name == name {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) FindByTwitterUserID(_ context.Context, twitterUserID string) (*model.User, error) {
	if twitterUserID == "" {
		return nil, nil
	}
	for _, u := range r.st.users {
		if u.TwitterUserID == twitterUserID {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) FindByRegistrationIPAddress(
	_ context.Context,
	ipAddress string,
	sortBy repository.SortBy,
	sortOrder model.SortOrder,
) ([]*model.User, error) {
	var users []*model.User
	for _, u := range r.st.users {
		if u.RegistrationIPAddress == ipAddress {
			users = append(users, &u)
		}
	}
	slices.SortStableFunc(users, func(a, b *model.User) int {
		var c int
		if sortBy == repository.SortByID {
			c = compareInt64(a.ID, b.ID)
		} else {
			c = a.CreatedAt.Compare(b.CreatedAt)
			if c == 0 {
				c = compareInt64(a.ID, b.ID)
			}
		}
		if sortOrder == model.SortOrderAscending {
			return c
		}
		return -c
	})
	return users, nil
}

func (r *userRepo) Add(_ context.Context, user *model.User) (int64, error) {
	for _, u := range r.st.users {
		if u.Name == user.Name {
			return 0, repository.ErrUserNameConflict
		}
		if user.TwitterUserID != "" && u.TwitterUserID == user.TwitterUserID {
			return 0, fmt.Errorf("twitter user id already linked: %s", user.TwitterUserID)
		}
	}
	id := r.st.nextUserID
	r.st.nextUserID++

	stored := *user
	stored.ID = id
	stored.LoginCredential = nil
	r.st.users[id] = stored
	return id, nil
}

func (r *userRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.st.users[id]; !ok {
		return false, nil
	}
	delete(r.st.users, id)
	delete(r.st.credentials, id)
	return true, nil
}

// credentialRepo はstateに直接作用する資格情報リポジトリ。
type credentialRepo struct {
	st *state
}

func (r *credentialRepo) FindByUserID(_ context.Context, userID int64) (*model.LoginCredential, error) {
	c, ok := r.st.credentials[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *credentialRepo) Add(_ context.Context, c *model.LoginCredential) error {
	if _, ok := r.st.users[c.UserID]; !ok {
		return fmt.Errorf("user not found: %d", c.UserID)
	}
	if _, ok := r.st.credentials[c.UserID]; ok {
		return fmt.Errorf("login credential already exists: %d", c.UserID)
	}
	r.st.credentials[c.UserID] = *c
	return nil
}

func (r *credentialRepo) Update(_ context.Context, c *model.LoginCredential) (bool, error) {
	if _, ok := r.st.credentials[c.UserID]; !ok {
		return false, nil
	}
	r.st.credentials[c.UserID] = *c
	return true, nil
}

func (r *credentialRepo) Delete(_ context.Context, c *model.LoginCredential) (bool, error) {
	if _, ok := r.st.credentials[c.UserID]; !ok {
		return false, nil
	}
	delete(r.st.credentials, c.UserID)
	return true, nil
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// autoUserRepo は操作ごとにロックを取得して直接反映するユーザーリポジトリ。
type autoUserRepo struct {
	s *Store
}

func (r *autoUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&userRepo{st: r.s.state}).FindByID(ctx, id)
}

func (r *autoUserRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&userRepo{st: r.s.state}).FindByName(ctx, name)
}

func (r *autoUserRepo) FindByTwitterUserID(ctx context.Context, twitterUserID string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&userRepo{st: r.s.state}).FindByTwitterUserID(ctx, twitterUserID)
}

func (r *autoUserRepo) FindByRegistrationIPAddress(
	ctx context.Context,
	ipAddress string,
	sortBy repository.SortBy,
	sortOrder model.SortOrder,
) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&userRepo{st: r.s.state}).FindByRegistrationIPAddress(ctx, ipAddress, sortBy, sortOrder)
}

func (r *autoUserRepo) Add(ctx context.Context, user *model.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&userRepo{st: r.s.state}).Add(ctx, user)
}

func (r *autoUserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&userRepo{st: r.s.state}).Delete(ctx, id)
}

// autoCredentialRepo は操作ごとにロックを取得して直接反映する資格情報リポジトリ。
type autoCredentialRepo struct {
	s *Store
}

func (r *autoCredentialRepo) FindByUserID(ctx context.Context, userID int64) (*model.LoginCredential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&credentialRepo{st: r.s.state}).FindByUserID(ctx, userID)
}

func (r *autoCredentialRepo) Add(ctx context.Context, c *model.LoginCredential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&credentialRepo{st: r.s.state}).Add(ctx, c)
}

func (r *autoCredentialRepo) Update(ctx context.Context, c *model.LoginCredential) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&credentialRepo{st: r.s.state}).Update(ctx, c)
}

func (r *autoCredentialRepo) Delete(ctx context.Context, c *model.LoginCredential) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&credentialRepo{st: r.s.state}).Delete(ctx, c)
}

// compile-time interface check
var (
	_ repository.UserRepository            = (*userRepo)(nil)
	_ repository.UserRepository            = (*autoUserRepo)(nil)
	_ repository.LoginCredentialRepository = (*credentialRepo)(nil)
	_ repository.LoginCredentialRepository = (*autoCredentialRepo)(nil)
)
