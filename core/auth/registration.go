package auth

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/otp"
)

const msgChildNotVerified = "child email has not been verified"

type Registrar struct {
	accounts *account.Service
	ledger   *otp.Ledger
	notifier *Notifier
	validate *validator.Validate
	logger   core.Logger
}

func NewRegistrar(
	accounts *account.Service,
	ledger *otp.Ledger,
	notifier *Notifier,
	validate *validator.Validate,
	logger core.Logger,
) *Registrar {
	return &Registrar{
		accounts: accounts,
		ledger:   ledger,
		notifier: notifier,
		validate: validate,
		logger:   logger,
	}
}

// RequestCode issues a registration code for email once the address passes the policy for role.
// role is empty for the generic registration.
func (r *Registrar) RequestCode(ctx context.Context, role account.Role, email string) error {
	email = core.NormalizeEmail(email)
	if err := checkAddress(r.validate, "email", email); err != nil {
		return err
	}

	res, err := r.accounts.Resolve(ctx, email)
	if err != nil {
		return core.NewStoreError(err, "resolving address")
	}
	if err := account.CheckCodeRequest(res, role); err != nil {
		return err
	}

	code, err := r.ledger.Issue(ctx, otp.PurposeRegistration, email)
	if err != nil {
		return core.NewStoreError(err, "issuing registration code")
	}
	msg, ok := registrationMessages[role]
	if !ok {
		msg = registrationMessages[""]
	}
	return r.notifier.sendCode(ctx, email, msg, code, r.ledger.TTL(otp.PurposeRegistration))
}

// VerifyCode tells whether code is the pending registration code for email. The code stays pending.
func (r *Registrar) VerifyCode(ctx context.Context, email, code string) error {
	email = core.NormalizeEmail(email)
	if err := checkAddress(r.validate, "email", email); err != nil {
		return err
	}
	if code = core.CleanString(code); code == "" {
		return core.NewValidationError(errors.New("otp is required"), core.FieldError{Field: "otp", Error: "this field is required"})
	}
	return checkCode(r.ledger.Check(ctx, otp.PurposeRegistration, email, code))
}

// Register consumes the registration code and persists the account.
// A Parent registering with a child email needs a pending link attestation for that child,
// which is consumed once the account is stored.
func (r *Registrar) Register(ctx context.Context, na account.NewAccount) (account.Account, error) {
	if err := na.Validate(r.validate); err != nil {
		return account.Account{}, err
	}

	linking := na.Role == account.RoleParent && na.ChildEmail != ""
	if linking {
		if err := r.ledger.CheckAttestation(ctx, na.ChildEmail); err != nil {
			if otp.IsInvalidCode(err) {
				return account.Account{}, core.NewValidationError(
					errors.New(msgChildNotVerified),
					core.FieldError{Field: "child_email", Error: msgChildNotVerified},
				)
			}
			return account.Account{}, core.NewStoreError(err, "checking child attestation")
		}
	}

	if err := checkCode(r.ledger.Verify(ctx, otp.PurposeRegistration, na.Email, na.Code)); err != nil {
		return account.Account{}, err
	}

	res, err := r.accounts.Resolve(ctx, na.Email)
	if err != nil {
		return account.Account{}, core.NewStoreError(err, "resolving address")
	}
	upgrade, err := account.CheckCompletion(res, na.Role)
	if err != nil {
		return account.Account{}, err
	}

	var acc account.Account
	outcome := "created"
	if upgrade {
		acc, err = r.accounts.Upgrade(ctx, res.Account, na)
		outcome = "upgraded"
	} else {
		acc, err = r.accounts.Create(ctx, na)
	}
	if err != nil {
		if errors.Cause(err) == account.ErrEmailExists {
			return account.Account{}, core.NewConflictError(account.ErrEmailExists.Error())
		}
		return account.Account{}, core.NewStoreError(err, "saving account")
	}
	registeredTotal.WithLabelValues(string(acc.Role), outcome).Inc()

	if linking {
		if err := r.ledger.ConsumeAttestation(ctx, na.ChildEmail); err != nil && !otp.IsInvalidCode(err) {
			r.logger.Warn("auth.Register: consuming child attestation", err, map[string]interface{}{"child_email": na.ChildEmail})
		}
	}
	return acc, nil
}
