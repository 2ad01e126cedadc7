package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
)

type adminRow struct {
	ID           string      `db:"id"`
	Name         null.String `db:"name"`
	Email        string      `db:"email"`
	Phone        null.String `db:"phone"`
	Password     []byte      `db:"password"`
	IsSuperAdmin bool        `db:"is_super_admin"`
	Photo        null.Bytes  `db:"photo"`
	PhotoType    null.String `db:"photo_type"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

const adminColumns = `"id", "name", "email", "phone", "password", "is_super_admin", "photo", "photo_type", "created_at", "updated_at"`

// adminOrderFields whitelists the columns QueryAdmins may sort on.
var adminOrderFields = map[string]string{
	"name":       `"name"`,
	"email":      `"email"`,
	"created_at": `"created_at"`,
}

type adminRepository struct {
	exec core.DBExecutor
}

var _ account.AdminRepository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(exec core.DBExecutor) account.AdminRepository {
	return &adminRepository{exec: exec}
}

func (repo adminRepository) toRow(adm account.Admin) adminRow {
	r := adminRow{
		ID:           adm.ID,
		Name:         null.NewString(adm.Name, adm.Name != ""),
		Email:        adm.Email,
		Phone:        null.NewString(adm.Phone, adm.Phone != ""),
		Password:     adm.PasswordHash,
		IsSuperAdmin: adm.IsSuperAdmin,
		CreatedAt:    adm.CreatedAt.UTC(),
		UpdatedAt:    adm.UpdatedAt.UTC(),
	}
	if adm.Photo != nil && len(adm.Photo.Data) > 0 {
		r.Photo = null.BytesFrom(adm.Photo.Data)
		r.PhotoType = null.StringFrom(adm.Photo.ContentType)
	}
	return r
}

func (repo adminRepository) fromRow(r adminRow) account.Admin {
	adm := account.Admin{
		ID:           r.ID,
		Name:         r.Name.String,
		Email:        r.Email,
		Phone:        r.Phone.String,
		PasswordHash: r.Password,
		IsSuperAdmin: r.IsSuperAdmin,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.Photo.Valid && len(r.Photo.Bytes) > 0 {
		adm.Photo = &account.Photo{Data: r.Photo.Bytes, ContentType: r.PhotoType.String}
	}
	return adm
}

func (repo adminRepository) trapErr(err error, op string) error {
	switch {
	case errors.Cause(err) == sql.ErrNoRows:
		return account.ErrAdminNotFound
	case isUniqueViolation(err):
		return account.ErrEmailExists
	}
	return core.NewStoreError(err, op)
}

func (repo adminRepository) CreateAdmin(ctx context.Context, adm account.Admin) (account.Admin, error) {
	q := `INSERT INTO "admin" (` + adminColumns + `) VALUES
		(:id, :name, :email, :phone, :password, :is_super_admin, :photo, :photo_type, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, repo.toRow(adm)); err != nil {
		return account.Admin{}, repo.trapErr(err, "inserting admin")
	}
	return adm, nil
}

func (repo adminRepository) GetAdmin(ctx context.Context, filter account.AdminFilter) (account.Admin, error) {
	q := `SELECT ` + adminColumns + ` FROM "admin" WHERE true`
	var args []interface{}
	if filter.ID != "" {
		args = append(args, filter.ID)
		q += ` AND "id"::text = $` + strconv.Itoa(len(args))
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		q += ` AND lower("email") = lower($` + strconv.Itoa(len(args)) + `)`
	}
	q += ` LIMIT 1`

	var r adminRow
	if err := sqlx.GetContext(ctx, repo.exec, &r, q, args...); err != nil {
		return account.Admin{}, repo.trapErr(err, "selecting admin")
	}
	return repo.fromRow(r), nil
}

func (repo adminRepository) QueryAdmins(ctx context.Context, ordering []core.DBOrdering) ([]account.Admin, error) {
	orderBy := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := adminOrderFields[ord.Field]; ok {
			orderBy = append(orderBy, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	orderBy = append(orderBy, `"created_at" ASC`)

	var rows []adminRow
	q := `SELECT ` + adminColumns + ` FROM "admin" ORDER BY ` + strings.Join(orderBy, ", ")
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q); err != nil {
		return nil, core.NewStoreError(err, "selecting admins")
	}
	admins := make([]account.Admin, 0, len(rows))
	for _, r := range rows {
		admins = append(admins, repo.fromRow(r))
	}
	return admins, nil
}

func (repo adminRepository) UpdateAdmin(ctx context.Context, adm account.Admin) (account.Admin, error) {
	q := `UPDATE "admin" SET
		"name" = :name, "email" = :email, "phone" = :phone, "password" = :password,
		"is_super_admin" = :is_super_admin, "photo" = :photo, "photo_type" = :photo_type, "updated_at" = :updated_at
		WHERE "id" = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, repo.toRow(adm))
	if err != nil {
		return account.Admin{}, repo.trapErr(err, "updating admin")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Admin{}, account.ErrAdminNotFound
	}
	return adm, nil
}

func (repo adminRepository) DeleteAdminByEmail(ctx context.Context, email string) error {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM "admin" WHERE lower("email") = lower($1)`, email)
	if err != nil {
		return repo.trapErr(err, "deleting admin")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.ErrAdminNotFound
	}
	return nil
}
