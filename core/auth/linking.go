package auth

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/otp"
)

const (
	msgChildNotFound = "No student account found with this email"
	msgNoChildLinked = "No child linked to this account"
)

// Linker attests that a child address belongs to a Student who approved the link.
// It never persists the link itself; parent registration does.
type Linker struct {
	accounts *account.Service
	ledger   *otp.Ledger
	notifier *Notifier
	validate *validator.Validate
}

func NewLinker(accounts *account.Service, ledger *otp.Ledger, notifier *Notifier, validate *validator.Validate) *Linker {
	return &Linker{
		accounts: accounts,
		ledger:   ledger,
		notifier: notifier,
		validate: validate,
	}
}

func (lk *Linker) findChild(ctx context.Context, childEmail string) (account.Account, error) {
	child, err := lk.accounts.GetByEmailAndRole(ctx, childEmail, account.RoleStudent)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return account.Account{}, core.NewNotFoundError(msgChildNotFound)
		}
		return account.Account{}, core.NewStoreError(err, "finding child")
	}
	return child, nil
}

// VerifyChildEmail sends a child-verification code to childEmail, which must belong to a Student.
func (lk *Linker) VerifyChildEmail(ctx context.Context, childEmail string) error {
	childEmail = core.NormalizeEmail(childEmail)
	if err := checkAddress(lk.validate, "child_email", childEmail); err != nil {
		return err
	}
	if _, err := lk.findChild(ctx, childEmail); err != nil {
		return err
	}

	code, err := lk.ledger.Issue(ctx, otp.PurposeChildVerification, childEmail)
	if err != nil {
		return core.NewStoreError(err, "issuing child code")
	}
	return lk.notifier.sendCode(ctx, childEmail, childMessage, code, lk.ledger.TTL(otp.PurposeChildVerification))
}

// VerifyChildOtp consumes the child-verification code and records a link attestation for childEmail.
func (lk *Linker) VerifyChildOtp(ctx context.Context, childEmail, code string) error {
	childEmail = core.NormalizeEmail(childEmail)
	if err := checkAddress(lk.validate, "child_email", childEmail); err != nil {
		return err
	}
	if code = core.CleanString(code); code == "" {
		return core.NewValidationError(errors.New("otp is required"), core.FieldError{Field: "otp", Error: "this field is required"})
	}

	if err := checkCode(lk.ledger.Verify(ctx, otp.PurposeChildVerification, childEmail, code)); err != nil {
		return err
	}
	if err := lk.ledger.Attest(ctx, childEmail); err != nil {
		return core.NewStoreError(err, "attesting child link")
	}
	return nil
}

// ChildProfile returns the Student linked to parent.
func (lk *Linker) ChildProfile(ctx context.Context, parent account.Account) (account.Account, error) {
	if parent.Role != account.RoleParent {
		return account.Account{}, core.NewForbiddenError("Only parents can view a child profile")
	}
	if parent.ChildEmail == "" {
		return account.Account{}, core.NewNotFoundError(msgNoChildLinked)
	}
	return lk.findChild(ctx, parent.ChildEmail)
}
