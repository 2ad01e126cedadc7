package auth

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/otp"
	"github.com/trezcool/edugate/core/session"
)

const msgIncorrectPassword = "Incorrect password"

type (
	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// Session is what a successful login hands back. Exactly one of User and Admin is set.
	Session struct {
		Token     string                `json:"token"`
		ExpiresAt time.Time             `json:"expires_at"`
		Role      account.Role          `json:"role"`
		User      *account.Summary      `json:"user,omitempty"`
		Admin     *account.AdminSummary `json:"admin,omitempty"`
	}

	// Authenticator turns credentials into a session.
	// It returns account.ErrNotFound or account.ErrAdminNotFound when it does not know the address,
	// letting a chain try the next one.
	Authenticator interface {
		Authenticate(ctx context.Context, creds Credentials) (Session, error)
	}

	chain []Authenticator

	accountAuthenticator struct {
		accounts      *account.Service
		issuer        *session.Issuer
		checkPassword bool
	}

	adminAuthenticator struct {
		accounts      *account.Service
		issuer        *session.Issuer
		checkPassword bool
	}
)

var (
	_ Authenticator = chain(nil)
	_ Authenticator = (*accountAuthenticator)(nil)
	_ Authenticator = (*adminAuthenticator)(nil)
)

func isUnknownAddress(err error) bool {
	switch errors.Cause(err) {
	case account.ErrNotFound, account.ErrAdminNotFound:
		return true
	}
	return false
}

func (c chain) Authenticate(ctx context.Context, creds Credentials) (Session, error) {
	for _, a := range c {
		sess, err := a.Authenticate(ctx, creds)
		if isUnknownAddress(err) {
			continue
		}
		return sess, err
	}
	return Session{}, account.ErrNotFound
}

func (a *accountAuthenticator) Authenticate(ctx context.Context, creds Credentials) (Session, error) {
	acc, err := a.accounts.GetByEmail(ctx, creds.Email)
	if err != nil {
		return Session{}, err
	}
	if a.checkPassword && acc.CheckPassword(creds.Password) != nil {
		return Session{}, core.NewAuthenticationError(msgIncorrectPassword)
	}
	token, exp, err := a.issuer.Mint(acc.ID, string(acc.Role))
	if err != nil {
		return Session{}, err
	}
	summary := acc.Summary()
	return Session{Token: token, ExpiresAt: exp, Role: acc.Role, User: &summary}, nil
}

func (a *adminAuthenticator) Authenticate(ctx context.Context, creds Credentials) (Session, error) {
	adm, err := a.accounts.GetAdminByEmail(ctx, creds.Email)
	if err != nil {
		return Session{}, err
	}
	if a.checkPassword && adm.CheckPassword(creds.Password) != nil {
		return Session{}, core.NewAuthenticationError(msgIncorrectPassword)
	}
	token, exp, err := a.issuer.Mint(adm.ID, string(account.RoleAdmin))
	if err != nil {
		return Session{}, err
	}
	summary := adm.Summary()
	return Session{Token: token, ExpiresAt: exp, Role: account.RoleAdmin, Admin: &summary}, nil
}

type Login struct {
	accounts *account.Service
	ledger   *otp.Ledger
	notifier *Notifier
	validate *validator.Validate

	byPassword Authenticator // privileged first
	byAdmin    Authenticator
	byCode     Authenticator // ordinary first
}

func NewLogin(
	accounts *account.Service,
	ledger *otp.Ledger,
	notifier *Notifier,
	issuer *session.Issuer,
	validate *validator.Validate,
) *Login {
	adminPwd := &adminAuthenticator{accounts: accounts, issuer: issuer, checkPassword: true}
	return &Login{
		accounts: accounts,
		ledger:   ledger,
		notifier: notifier,
		validate: validate,
		byPassword: chain{
			adminPwd,
			&accountAuthenticator{accounts: accounts, issuer: issuer, checkPassword: true},
		},
		byAdmin: adminPwd,
		byCode: chain{
			&accountAuthenticator{accounts: accounts, issuer: issuer},
			&adminAuthenticator{accounts: accounts, issuer: issuer},
		},
	}
}

func (l *Login) checkCredentials(creds *Credentials) error {
	creds.Email = core.NormalizeEmail(creds.Email)
	if err := checkAddress(l.validate, "email", creds.Email); err != nil {
		return err
	}
	if creds.Password == "" {
		return core.NewValidationError(errors.New("password is required"), core.FieldError{Field: "password", Error: "this field is required"})
	}
	return nil
}

func (l *Login) authenticate(ctx context.Context, a Authenticator, method string, creds Credentials) (Session, error) {
	sess, err := a.Authenticate(ctx, creds)
	if err != nil {
		switch errors.Cause(err) {
		case account.ErrNotFound:
			return Session{}, core.NewNotFoundError(account.ErrNotFound.Error())
		case account.ErrAdminNotFound:
			return Session{}, core.NewNotFoundError(account.ErrAdminNotFound.Error())
		}
		if core.IsAuthentication(err) {
			return Session{}, err
		}
		return Session{}, errors.Wrap(err, "authenticating")
	}
	loginsTotal.WithLabelValues(method, string(sess.Role)).Inc()
	return sess, nil
}

// PasswordLogin tries the privileged store first, then the ordinary one.
func (l *Login) PasswordLogin(ctx context.Context, creds Credentials) (Session, error) {
	if err := l.checkCredentials(&creds); err != nil {
		return Session{}, err
	}
	return l.authenticate(ctx, l.byPassword, "password", creds)
}

// AdminLogin only accepts privileged accounts.
func (l *Login) AdminLogin(ctx context.Context, creds Credentials) (Session, error) {
	if err := l.checkCredentials(&creds); err != nil {
		return Session{}, err
	}
	return l.authenticate(ctx, l.byAdmin, "admin", creds)
}

// RequestLoginCode emails a login code to a known address of either kind.
func (l *Login) RequestLoginCode(ctx context.Context, email string) error {
	email = core.NormalizeEmail(email)
	if err := checkAddress(l.validate, "email", email); err != nil {
		return err
	}

	res, err := l.accounts.Resolve(ctx, email)
	if err != nil {
		return core.NewStoreError(err, "resolving address")
	}
	if res.Kind == account.KindNone {
		return core.NewNotFoundError(account.ErrNotFound.Error())
	}

	code, err := l.ledger.Issue(ctx, otp.PurposeLogin, email)
	if err != nil {
		return core.NewStoreError(err, "issuing login code")
	}
	return l.notifier.sendCode(ctx, email, loginMessage, code, l.ledger.TTL(otp.PurposeLogin))
}

// CompleteLoginWithCode consumes the login code, then opens a session for the ordinary account,
// or the privileged one when there is no ordinary account.
func (l *Login) CompleteLoginWithCode(ctx context.Context, email, code string) (Session, error) {
	email = core.NormalizeEmail(email)
	if err := checkAddress(l.validate, "email", email); err != nil {
		return Session{}, err
	}
	if code = core.CleanString(code); code == "" {
		return Session{}, core.NewValidationError(errors.New("otp is required"), core.FieldError{Field: "otp", Error: "this field is required"})
	}

	if err := checkCode(l.ledger.Verify(ctx, otp.PurposeLogin, email, code)); err != nil {
		return Session{}, err
	}
	return l.authenticate(ctx, l.byCode, "code", Credentials{Email: email})
}
