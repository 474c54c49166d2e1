package services_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/barklazza/projeto-vendas/internal/services"
	"github.com/barklazza/projeto-vendas/internal/services/servicestest"
	"github.com/barklazza/projeto-vendas/internal/store"
	"github.com/barklazza/projeto-vendas/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_SignInRequiresOpenID(t *testing.T) {
	svc := services.NewUserService(servicestest.NewUsers(), nil, nil)

	_, _, err := svc.SignIn(context.Background(), types.Identity{OpenID: "  "})
	assert.ErrorIs(t, err, services.ErrInvalidArgument)
}

func TestUserService_SignInCreatesThenRefreshes(t *testing.T) {
	ctx := context.Background()
	repo := servicestest.NewUsers()
	svc := services.NewUserService(repo, nil, nil)

	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	user, stored, err := svc.SignIn(ctx, types.Identity{
		OpenID:       "oid-1",
		Name:         ptr("Ana"),
		Email:        ptr("ana@example.com"),
		LastSignedIn: first,
	})
	require.NoError(t, err)
	require.True(t, stored)
	assert.Equal(t, types.RoleUser, user.Role)

	second := first.Add(24 * time.Hour)
	user, stored, err = svc.SignIn(ctx, types.Identity{OpenID: "oid-1", LastSignedIn: second})
	require.NoError(t, err)
	require.True(t, stored)
	assert.Equal(t, "Ana", *user.Name)
	assert.Equal(t, "ana@example.com", *user.Email)
	assert.Equal(t, second, user.LastSignedIn)
}

func TestUserService_SignInNeverDowngradesRole(t *testing.T) {
	ctx := context.Background()
	events := &servicestest.Events{}
	svc := services.NewUserService(servicestest.NewUsers(), events, nil)

	admin, err := svc.ProvisionAdmin(ctx, "owner")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	user, _, err := svc.SignIn(ctx, types.Identity{OpenID: "owner", Name: ptr("Dona")})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)
	assert.True(t, user.IsAdmin())

	assert.Equal(t, []string{services.EventUserAdminProvisioned}, events.Types())
}

func TestUserService_SignInSwallowsStoreFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	repo := servicestest.NewUsers()
	repo.Err = store.ErrUnavailable
	svc := services.NewUserService(repo, nil, logger)

	_, stored, err := svc.SignIn(context.Background(), types.Identity{OpenID: "oid-1"})
	assert.NoError(t, err)
	assert.False(t, stored)
	assert.Contains(t, logs.String(), "sign-in upsert failed")
}

func TestUserService_SignInRejectsUnknownRole(t *testing.T) {
	svc := services.NewUserService(servicestest.NewUsers(), nil, nil)

	_, _, err := svc.SignIn(context.Background(), types.Identity{OpenID: "x", Role: ptr("root")})
	assert.ErrorIs(t, err, services.ErrInvalidArgument)
}

func TestUserService_ProvisionAdminErrors(t *testing.T) {
	repo := servicestest.NewUsers()
	svc := services.NewUserService(repo, nil, nil)

	_, err := svc.ProvisionAdmin(context.Background(), "")
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	repo.Err = store.ErrUnavailable
	_, err = svc.ProvisionAdmin(context.Background(), "owner")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestUserService_ListOrderedByEmail(t *testing.T) {
	repo := servicestest.NewUsers()
	repo.Add(types.User{OpenID: "b", Email: ptr("zeca@example.com")})
	repo.Add(types.User{OpenID: "c"})
	repo.Add(types.User{OpenID: "a", Email: ptr("ana@example.com")})
	svc := services.NewUserService(repo, nil, nil)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a", users[0].OpenID)
	assert.Equal(t, "b", users[1].OpenID)
	assert.Equal(t, "c", users[2].OpenID)
}

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, services.RequireAdmin(types.User{Role: types.RoleUser}), services.ErrForbidden)
	assert.NoError(t, services.RequireAdmin(types.User{Role: types.RoleAdmin}))
}
