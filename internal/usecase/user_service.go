package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/grid-fantasy/internal/domain/user"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
)

// UserService keeps the local user profile in step with the identity
// provider so standings can show display names.
type UserService struct {
	userRepo user.Repository
	logger   *logging.Logger
}

func NewUserService(userRepo user.Repository, logger *logging.Logger) *UserService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UserService{userRepo: userRepo, logger: logger}
}

// EnsureUser writes the profile only when it is new or changed.
func (s *UserService) EnsureUser(ctx context.Context, principal user.Principal) (user.User, error) {
	userID := strings.TrimSpace(principal.UserID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	role := principal.Role
	if role == "" {
		role = user.RoleUser
	}
	want := user.User{
		ID:       userID,
		Email:    strings.TrimSpace(principal.Email),
		Username: strings.TrimSpace(principal.Username),
		Role:     role,
	}

	current, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if exists && current == want {
		return current, nil
	}
	if err := s.userRepo.Upsert(ctx, want); err != nil {
		return user.User{}, fmt.Errorf("upsert user: %w", err)
	}

	s.logger.InfoContext(ctx, "user profile synced", "user_id", userID, "created", !exists)
	return want, nil
}
