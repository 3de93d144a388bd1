package memory

import (
	"context"

	"github.com/sebuszqo/FinanceDashboard/internal/user"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) CreateUser(ctx context.Context, u *user.User) error {
	return r.store.write(ctx, func(st *state) error {
		if _, exists := st.usersByEmail[u.Email]; exists {
			return user.ErrEmailAlreadyExists
		}
		st.seqUser++
		u.ID = st.seqUser
		st.users[u.ID] = *u
		st.usersByEmail[u.Email] = u.ID
		return nil
	})
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var found user.User
	err := r.store.read(ctx, func(st *state) error {
		id, ok := st.usersByEmail[email]
		if !ok {
			return user.ErrUserNotFound
		}
		found = st.users[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

