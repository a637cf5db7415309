package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/grid-fantasy/internal/domain/user"
	usermock "github.com/riskibarqy/grid-fantasy/internal/mocks/domain/user"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestUserService_EnsureUser_SkipsUnchangedProfileUsingMockery(t *testing.T) {
	t.Parallel()

	repo := usermock.NewRepository(t)
	service := NewUserService(repo, logging.NewNop())
	stored := user.User{ID: "u1", Email: "a@example.com", Username: "alice", Role: user.RoleUser}

	repo.On("GetByID", mock.Anything, "u1").Return(stored, true, nil).Once()

	got, err := service.EnsureUser(context.Background(), user.Principal{UserID: "u1", Email: "a@example.com", Username: "alice"})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if got != stored {
		t.Fatalf("unexpected user: %+v", got)
	}
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestUserService_EnsureUser_UpsertsChangedProfileUsingMockery(t *testing.T) {
	t.Parallel()

	repo := usermock.NewRepository(t)
	service := NewUserService(repo, logging.NewNop())
	want := user.User{ID: "u1", Email: "a@example.com", Username: "alice2", Role: user.RoleAdmin}

	repo.On("GetByID", mock.Anything, "u1").Return(user.User{ID: "u1", Username: "alice", Role: user.RoleUser}, true, nil).Once()
	repo.On("Upsert", mock.Anything, want).Return(nil).Once()

	got, err := service.EnsureUser(context.Background(), user.Principal{UserID: "u1", Email: "a@example.com", Username: "alice2", Role: user.RoleAdmin})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUserService_EnsureUser_RequiresIdentity(t *testing.T) {
	t.Parallel()

	service := NewUserService(usermock.NewRepository(t), logging.NewNop())
	if _, err := service.EnsureUser(context.Background(), user.Principal{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
