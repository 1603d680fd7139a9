package admin_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/admin"
	emailsvc "github.com/renshulabs/academy/services/email"
	dummydb "github.com/renshulabs/academy/storage/database/dummy"
)

func setup(t *testing.T) (*admin.Service, admin.Repository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewAdminRepository(db)
	return admin.NewService(repo, emailsvc.NewConsoleServiceMock(&core.Config{TestMode: true})), repo
}

func TestService_Authorize(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, admin.NewAdmin{
		Email:    "sensei@renshu.app",
		Name:     "Sensei",
		Password: "correct-horse",
	})
	assert.NoError(t, err)

	// allow-listed email resolves an auth context
	auth, err := svc.Authorize(ctx, "sensei@renshu.app")
	assert.NoError(t, err)
	assert.Equal(t, "sensei@renshu.app", auth.Email)
	assert.True(t, auth.Admin.IsActive)

	// lookup is case-insensitive on the email
	_, err = svc.Authorize(ctx, "SENSEI@renshu.app")
	assert.NoError(t, err)

	// unknown email is denied with the email named in the error
	_, err = svc.Authorize(ctx, "stranger@renshu.app")
	authErr, ok := errors.Cause(err).(*core.AuthorizationError)
	if assert.True(t, ok, "expected *core.AuthorizationError, got %T", err) {
		assert.Equal(t, "stranger@renshu.app", authErr.Email)
		assert.Contains(t, authErr.Error(), "stranger@renshu.app")
	}
}

func TestService_Authorize_deactivated(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	adm, err := svc.Register(ctx, admin.NewAdmin{
		Email:    "sensei@renshu.app",
		Name:     "Sensei",
		Password: "correct-horse",
	})
	assert.NoError(t, err)

	_, err = svc.Authorize(ctx, adm.Email)
	assert.NoError(t, err)

	// deactivation locks the next request out; there is no grace period
	adm.IsActive = false
	_, err = repo.UpdateOrCreateAdmin(ctx, adm)
	assert.NoError(t, err)

	_, err = svc.Authorize(ctx, adm.Email)
	authErr, ok := errors.Cause(err).(*core.AuthorizationError)
	if assert.True(t, ok, "expected *core.AuthorizationError, got %T", err) {
		assert.Equal(t, adm.Email, authErr.Email)
	}

	// login is refused too, with the same error shape
	_, err = svc.Authenticate(ctx, adm.Email, "correct-horse")
	_, ok = errors.Cause(err).(*core.AuthorizationError)
	assert.True(t, ok, "expected *core.AuthorizationError, got %T", err)
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, admin.NewAdmin{
		Email:    "sensei@renshu.app",
		Name:     "Sensei",
		Password: "correct-horse",
	})
	assert.NoError(t, err)

	adm, err := svc.Authenticate(ctx, "sensei@renshu.app", "correct-horse")
	assert.NoError(t, err)
	assert.False(t, adm.LastLogin.IsZero())

	// wrong password is indistinguishable from an unknown account
	_, err = svc.Authenticate(ctx, "sensei@renshu.app", "wrong")
	assert.Equal(t, admin.ErrNotFound, errors.Cause(err))

	_, err = svc.Authenticate(ctx, "nobody@renshu.app", "correct-horse")
	assert.Equal(t, admin.ErrNotFound, errors.Cause(err))
}
