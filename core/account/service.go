package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
)

var (
	// errors
	ErrNotFound      = errors.New("User not found")
	ErrAdminNotFound = errors.New("Admin not found")
	ErrEmailExists   = errors.New("User already exists")
)

type (
	// GetFilter applies AND on its set fields.
	GetFilter struct {
		ID    string
		Email string
		Role  Role
	}

	AdminFilter struct {
		ID    string
		Email string
	}

	// Repository stores ordinary accounts. Emails are unique (ErrEmailExists), lookups miss with ErrNotFound.
	Repository interface {
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		GetAccount(ctx context.Context, filter GetFilter) (Account, error)
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
		DeleteAccountByEmail(ctx context.Context, email string) error
	}

	// AdminRepository stores privileged accounts. Lookups miss with ErrAdminNotFound.
	AdminRepository interface {
		CreateAdmin(ctx context.Context, adm Admin) (Admin, error)
		GetAdmin(ctx context.Context, filter AdminFilter) (Admin, error)
		QueryAdmins(ctx context.Context, ordering []core.DBOrdering) ([]Admin, error)
		UpdateAdmin(ctx context.Context, adm Admin) (Admin, error)
		DeleteAdminByEmail(ctx context.Context, email string) error
	}

	// Service is the credential store: both account kinds behind one lookup.
	Service struct {
		accounts Repository
		admins   AdminRepository
	}
)

func NewService(accounts Repository, admins AdminRepository) *Service {
	return &Service{accounts: accounts, admins: admins}
}

// Resolve looks email up in the ordinary store first, then the privileged one.
func (svc *Service) Resolve(ctx context.Context, email string) (Resolution, error) {
	email = core.NormalizeEmail(email)

	acc, err := svc.accounts.GetAccount(ctx, GetFilter{Email: email})
	if err == nil {
		return Resolution{Kind: KindOrdinary, Account: acc}, nil
	} else if errors.Cause(err) != ErrNotFound {
		return Resolution{}, errors.Wrap(err, "finding account by email")
	}

	adm, err := svc.admins.GetAdmin(ctx, AdminFilter{Email: email})
	if err == nil {
		return Resolution{Kind: KindPrivileged, Admin: adm}, nil
	} else if errors.Cause(err) != ErrAdminNotFound {
		return Resolution{}, errors.Wrap(err, "finding admin by email")
	}
	return Resolution{Kind: KindNone}, nil
}

// ResolveID is Resolve by subject ID, as carried in session tokens.
func (svc *Service) ResolveID(ctx context.Context, id string) (Resolution, error) {
	acc, err := svc.accounts.GetAccount(ctx, GetFilter{ID: id})
	if err == nil {
		return Resolution{Kind: KindOrdinary, Account: acc}, nil
	} else if errors.Cause(err) != ErrNotFound {
		return Resolution{}, errors.Wrap(err, "finding account by ID")
	}

	adm, err := svc.admins.GetAdmin(ctx, AdminFilter{ID: id})
	if err == nil {
		return Resolution{Kind: KindPrivileged, Admin: adm}, nil
	} else if errors.Cause(err) != ErrAdminNotFound {
		return Resolution{}, errors.Wrap(err, "finding admin by ID")
	}
	return Resolution{Kind: KindNone}, nil
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.accounts.GetAccount(ctx, GetFilter{Email: core.NormalizeEmail(email)})
}

func (svc *Service) GetByEmailAndRole(ctx context.Context, email string, role Role) (Account, error) {
	return svc.accounts.GetAccount(ctx, GetFilter{Email: core.NormalizeEmail(email), Role: role})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.accounts.GetAccount(ctx, GetFilter{ID: id})
}

func (svc *Service) GetAdminByEmail(ctx context.Context, email string) (Admin, error) {
	return svc.admins.GetAdmin(ctx, AdminFilter{Email: core.NormalizeEmail(email)})
}

// Create persists a new account from a validated registration. The store rejects duplicate emails.
func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	now := NowFunc().UTC()
	acc := Account{
		ID:         uuid.New().String(),
		Name:       na.Name,
		Email:      core.NormalizeEmail(na.Email),
		Role:       na.Role,
		School:     na.School,
		Class:      na.Class,
		Phone:      na.Phone,
		ChildEmail: na.ChildEmail,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if acc.Role != RoleParent {
		acc.ChildEmail = ""
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	return svc.accounts.CreateAccount(ctx, acc)
}

// Upgrade converts an existing account to the registration's role, keeping its ID and photo.
func (svc *Service) Upgrade(ctx context.Context, existing Account, na NewAccount) (Account, error) {
	acc := existing
	acc.Name = na.Name
	acc.Role = na.Role
	acc.School = na.School
	acc.Class = na.Class
	if na.Phone != "" {
		acc.Phone = na.Phone
	}
	acc.ChildEmail = ""
	acc.UpdatedAt = NowFunc().UTC()
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	return svc.accounts.UpdateAccount(ctx, acc)
}

func applyPhoto(photo **Photo, up UpdateProfile) {
	if up.DeletePhoto {
		*photo = nil
	} else if up.Photo != "" {
		if p, err := ParsePhotoDataURL(up.Photo); err == nil {
			*photo = p
		}
	}
}

func (svc *Service) UpdateProfile(ctx context.Context, acc Account, up UpdateProfile) (Account, error) {
	if up.Name != nil && *up.Name != "" {
		acc.Name = *up.Name
	}
	if up.Phone != nil {
		acc.Phone = *up.Phone
	}
	if up.School != nil {
		acc.School = *up.School
	}
	if up.Class != nil {
		acc.Class = *up.Class
	}
	applyPhoto(&acc.Photo, up)
	acc.UpdatedAt = NowFunc().UTC()
	return svc.accounts.UpdateAccount(ctx, acc)
}

func (svc *Service) UpdateAdminProfile(ctx context.Context, adm Admin, up UpdateProfile) (Admin, error) {
	if up.Name != nil && *up.Name != "" {
		adm.Name = *up.Name
	}
	if up.Phone != nil {
		adm.Phone = *up.Phone
	}
	applyPhoto(&adm.Photo, up)
	adm.UpdatedAt = NowFunc().UTC()
	return svc.admins.UpdateAdmin(ctx, adm)
}

func (svc *Service) Delete(ctx context.Context, email string) error {
	return svc.accounts.DeleteAccountByEmail(ctx, core.NormalizeEmail(email))
}

func (svc *Service) QueryAdmins(ctx context.Context, ordering []core.DBOrdering) ([]Admin, error) {
	return svc.admins.QueryAdmins(ctx, ordering)
}

// AddAdmin creates a privileged account. The address must not be held by any account.
func (svc *Service) AddAdmin(ctx context.Context, na NewAdmin) (Admin, error) {
	res, err := svc.Resolve(ctx, na.Email)
	if err != nil {
		return Admin{}, err
	}
	switch res.Kind {
	case KindOrdinary:
		return Admin{}, core.NewConflictError("Email already registered as " + string(res.Account.Role) + ".")
	case KindPrivileged:
		return Admin{}, core.NewConflictError("Admin already exists")
	}

	now := NowFunc().UTC()
	adm := Admin{
		ID:           uuid.New().String(),
		Name:         na.Name,
		Email:        core.NormalizeEmail(na.Email),
		IsSuperAdmin: na.IsSuperAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := adm.SetPassword(na.Password); err != nil {
		return Admin{}, errors.Wrap(err, "hashing password")
	}
	adm, err = svc.admins.CreateAdmin(ctx, adm)
	if errors.Cause(err) == ErrEmailExists {
		// taken between the lookup and the insert
		return Admin{}, core.NewConflictError("Email already registered")
	}
	return adm, err
}

// SaveAdmin creates the admin or, if the address is already an admin, resets its password and super flag.
func (svc *Service) SaveAdmin(ctx context.Context, na NewAdmin) (Admin, error) {
	adm, err := svc.GetAdminByEmail(ctx, na.Email)
	if err != nil {
		if errors.Cause(err) == ErrAdminNotFound {
			return svc.AddAdmin(ctx, na)
		}
		return Admin{}, err
	}
	if na.Name != "" {
		adm.Name = na.Name
	}
	adm.IsSuperAdmin = na.IsSuperAdmin
	adm.UpdatedAt = NowFunc().UTC()
	if err := adm.SetPassword(na.Password); err != nil {
		return Admin{}, errors.Wrap(err, "hashing password")
	}
	return svc.admins.UpdateAdmin(ctx, adm)
}

func (svc *Service) RemoveAdmin(ctx context.Context, email string) error {
	return svc.admins.DeleteAdminByEmail(ctx, core.NormalizeEmail(email))
}

// ResetPassword sets a new password on whichever account holds email.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	res, err := svc.Resolve(ctx, email)
	if err != nil {
		return err
	}
	now := NowFunc().UTC()
	switch res.Kind {
	case KindOrdinary:
		acc := res.Account
		if err := acc.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		acc.UpdatedAt = now
		_, err = svc.accounts.UpdateAccount(ctx, acc)
		return err
	case KindPrivileged:
		adm := res.Admin
		if err := adm.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		adm.UpdatedAt = now
		_, err = svc.admins.UpdateAdmin(ctx, adm)
		return err
	}
	return ErrNotFound
}
