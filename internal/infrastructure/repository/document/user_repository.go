package document

import (
	"context"
	"fmt"

	"github.com/riskibarqy/grid-fantasy/internal/domain/user"
	"github.com/riskibarqy/grid-fantasy/internal/platform/docstore"
)

type userRecord struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func userFromRecord(docID string, rec userRecord) user.User {
	role := user.Role(rec.Role)
	if role == "" {
		role = user.RoleUser
	}
	return user.User{ID: docID, Email: rec.Email, Username: rec.Username, Role: role}
}

type UserRepository struct {
	store docstore.Store
}

func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	return getOne(ctx, r.store, CollectionUsers, userID, userFromRecord)
}

func (r *UserRepository) ListByIDs(ctx context.Context, userIDs []string) ([]user.User, error) {
	return getMany(ctx, r.store, CollectionUsers, userIDs, userFromRecord)
}

func (r *UserRepository) Upsert(ctx context.Context, u user.User) error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	_, err := put(ctx, r.store, CollectionUsers, u.ID, userRecord{
		Email:    u.Email,
		Username: u.Username,
		Role:     string(u.Role),
	})
	return err
}
