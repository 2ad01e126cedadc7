package account

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/edugate/core"
)

// Role is the value carried in the session token `role` claim.
type Role string

const (
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
	RoleParent  Role = "Parent"

	// RoleAdmin is the session role of every privileged account, super or not.
	RoleAdmin Role = "admin"
)

var (
	Roles = []Role{RoleStudent, RoleTeacher, RoleParent}

	passwordCost = bcrypt.DefaultCost

	NowFunc = time.Now // mockable

	errInvalidPhoto = errors.New("photo must be a base64 data URL")
)

func (r Role) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ParseRole matches s case-insensitively against the ordinary roles.
func ParseRole(s string) (Role, bool) {
	s = core.CleanString(s)
	for _, role := range Roles {
		if strings.EqualFold(s, string(role)) {
			return role, true
		}
	}
	return "", false
}

type Photo struct {
	Data        []byte
	ContentType string
}

// DataURL renders the photo the way clients display it.
func (p *Photo) DataURL() *string {
	if p == nil || len(p.Data) == 0 {
		return nil
	}
	s := "data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
	return &s
}

// ParsePhotoDataURL decodes `data:<content-type>;base64,<payload>`.
func ParsePhotoDataURL(s string) (*Photo, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, errInvalidPhoto
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, errInvalidPhoto
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errInvalidPhoto
	}
	return &Photo{Data: data, ContentType: strings.TrimSuffix(meta, ";base64")}, nil
}

// Account is an ordinary (Student, Teacher or Parent) account.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash []byte    `json:"-"`
	School       string    `json:"school,omitempty"`
	Class        string    `json:"class,omitempty"`
	Phone        string    `json:"phone"`
	ChildEmail   string    `json:"child_email,omitempty"`
	Photo        *Photo    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := hashPassword(pwd)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) Summary() Summary {
	return Summary{ID: a.ID, Email: a.Email, Role: a.Role, Name: a.Name}
}

func (a Account) Profile() Profile {
	return Profile{Account: a, Photo: a.Photo.DataURL()}
}

// Admin is a privileged account. It never holds an ordinary role.
type Admin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash []byte    `json:"-"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	Photo        *Photo    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (a *Admin) SetPassword(pwd string) error {
	hash, err := hashPassword(pwd)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Admin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Admin) Summary() AdminSummary {
	return AdminSummary{ID: a.ID, Email: a.Email, IsSuperAdmin: a.IsSuperAdmin}
}

func (a Admin) Profile() AdminProfile {
	return AdminProfile{Admin: a, Photo: a.Photo.DataURL()}
}

func hashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), passwordCost)
}

type (
	// Summary is the redacted account returned on login.
	Summary struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  Role   `json:"role"`
		Name  string `json:"name"`
	}

	AdminSummary struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		IsSuperAdmin bool   `json:"is_super_admin"`
	}

	Profile struct {
		Account
		Photo *string `json:"photo"`
	}

	AdminProfile struct {
		Admin
		Photo *string `json:"photo"`
	}
)

// NewAccount contains information needed to register a new Account.
type NewAccount struct {
	Role       Role   `json:"role" validate:"required,accountrole"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	School     string `json:"school"`
	Class      string `json:"class"`
	Phone      string `json:"phone" validate:"phone10"`
	ChildEmail string `json:"child_email" validate:"omitempty,email"`
	Code       string `json:"otp" validate:"required,otpcode"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.NormalizeEmail(na.Email)
	na.School = core.CleanString(na.School)
	na.Class = core.CleanString(na.Class)
	na.Phone = core.CleanString(na.Phone)
	na.ChildEmail = core.NormalizeEmail(na.ChildEmail)
	na.Code = core.CleanString(na.Code)
	if role, ok := ParseRole(string(na.Role)); ok {
		na.Role = role
	}
	if na.Role != RoleParent {
		na.ChildEmail = ""
	}
	return validate.Struct(na)
}

// UpdateProfile defines what information may be provided to modify an existing Account or Admin.
// School and Class are ignored for admins.
type UpdateProfile struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone" validate:"omitempty,phone10"`
	School      *string `json:"school"`
	Class       *string `json:"class"`
	Photo       string  `json:"photo"` // data URL
	DeletePhoto bool    `json:"delete_photo"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	for _, s := range []*string{up.Name, up.Phone, up.School, up.Class} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if err := validate.Struct(up); err != nil {
		return err
	}
	if up.Photo != "" && !up.DeletePhoto {
		if _, err := ParsePhotoDataURL(up.Photo); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "photo", Error: err.Error()})
		}
	}
	return nil
}

// NewAdmin contains information needed to create a new Admin.
type NewAdmin struct {
	Name         string `json:"name"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

func (na *NewAdmin) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.NormalizeEmail(na.Email)
	return validate.Struct(na)
}
