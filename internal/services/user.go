package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/barklazza/projeto-vendas/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByOpenID(ctx context.Context, openID string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Upsert(ctx context.Context, identity types.Identity) (types.User, error)
	EnsureRole(ctx context.Context, openID, role string) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	events EventPublisher
	logger *slog.Logger
}

func NewUserService(repo UserRepository, events EventPublisher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{repo: repo, events: publisherOrNoop(events), logger: logger}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByOpenID(ctx context.Context, openID string) (types.User, error) {
	return s.repo.GetByOpenID(ctx, openID)
}

// List returns every user ordered by email.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

// SignIn records a successful provider sign-in. A store failure is logged
// and swallowed: the returned bool is false and the caller continues with
// session data only.
func (s *UserService) SignIn(ctx context.Context, identity types.Identity) (types.User, bool, error) {
	identity.OpenID = strings.TrimSpace(identity.OpenID)
	if identity.OpenID == "" {
		return types.User{}, false, invalid("open_id", "identificador externo é obrigatório")
	}
	if identity.Role != nil && *identity.Role != types.RoleUser && *identity.Role != types.RoleAdmin {
		return types.User{}, false, invalid("role", "papel inválido")
	}

	user, err := s.repo.Upsert(ctx, identity)
	if err != nil {
		s.logger.WarnContext(ctx, "sign-in upsert failed, continuing without store",
			"open_id", identity.OpenID,
			"error", err,
		)
		return types.User{}, false, nil
	}
	return user, true, nil
}

// ProvisionAdmin grants the admin role to the account with openID,
// creating it when it has never signed in.
func (s *UserService) ProvisionAdmin(ctx context.Context, openID string) (types.User, error) {
	openID = strings.TrimSpace(openID)
	if openID == "" {
		return types.User{}, invalid("open_id", "identificador externo é obrigatório")
	}

	user, err := s.repo.EnsureRole(ctx, openID, types.RoleAdmin)
	if err != nil {
		return types.User{}, fmt.Errorf("provision admin %q: %w", openID, err)
	}

	s.logger.InfoContext(ctx, "admin provisioned", "user_id", user.ID, "open_id", openID)
	s.events.Publish(ctx, EventUserAdminProvisioned, user.ID, map[string]any{"open_id": openID})
	return user, nil
}

// RequireAdmin returns ErrForbidden unless user is an admin.
func RequireAdmin(user types.User) error {
	if !user.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
