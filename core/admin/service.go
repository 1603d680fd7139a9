package admin

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core"
)

var (
	// errors
	ErrNotFound = errors.New("admin not found")
)

type (
	Repository interface {
		GetAdminByID(ctx context.Context, id string) (Admin, error)
		GetAdminByEmail(ctx context.Context, email string) (Admin, error)
		QueryAllAdmins(ctx context.Context) ([]Admin, error)
		UpdateOrCreateAdmin(ctx context.Context, a Admin) (Admin, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Admin, error) {
	return svc.repo.GetAdminByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Admin, error) {
	return svc.repo.GetAdminByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryAll(ctx context.Context) ([]Admin, error) {
	return svc.repo.QueryAllAdmins(ctx)
}

// Register updates or creates an allow-list entry; used by the admin CLI.
func (svc *Service) Register(ctx context.Context, na NewAdmin) (Admin, error) {
	var created bool
	a, err := svc.GetByEmail(ctx, na.Email)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Admin{}, err
		}
		created = true
		a = Admin{
			Email:     na.Email,
			CreatedAt: time.Now().UTC(),
		}
	}
	a.Name = na.Name
	a.IsActive = true
	a.UpdatedAt = time.Now().UTC()
	if err := a.SetPassword(na.Password); err != nil {
		return Admin{}, err
	}
	a, err = svc.repo.UpdateOrCreateAdmin(ctx, a)
	if err != nil {
		return Admin{}, err
	}
	if created && svc.mailSvc != nil {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: a.Name, Address: a.Email}},
			Subject:      "Welcome to Renshu",
			TemplateName: "welcome",
			TemplateData: struct{ Name string }{a.Name},
		})
	}
	return a, nil
}

// Authenticate verifies the email/password pair against the directory and
// stamps the login time.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Admin, error) {
	a, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return Admin{}, err
	}
	if err = a.CheckPassword(pwd); err != nil {
		return Admin{}, errors.Wrap(ErrNotFound, "password mismatch")
	}
	if !a.IsActive {
		return Admin{}, core.NewAuthorizationError(a.Email)
	}
	a.LastLogin = time.Now().UTC()
	a.UpdatedAt = a.LastLogin
	return svc.repo.UpdateOrCreateAdmin(ctx, a)
}

// Authorize resolves the authorization context for a session's verified email.
// The allow-list is consulted on every call (per request), not cached: revoking
// an entry takes effect immediately. A missing or deactivated entry yields an
// AuthorizationError naming the email, on purpose (admin self-service
// debugging; only admins ever reach the gated views).
func (svc *Service) Authorize(ctx context.Context, email string) (AuthContext, error) {
	a, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return AuthContext{}, core.NewAuthorizationError(email)
		}
		return AuthContext{}, errors.Wrap(err, "checking allow-list")
	}
	if !a.IsActive {
		return AuthContext{}, core.NewAuthorizationError(email)
	}
	return AuthContext{Email: a.Email, Admin: a}, nil
}
