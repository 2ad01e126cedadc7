package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
)

// uniqueViolation is the postgres error code for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

type accountRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	Email      string      `db:"email"`
	Role       string      `db:"role"`
	Password   []byte      `db:"password"`
	School     null.String `db:"school"`
	Class      null.String `db:"class"`
	Phone      null.String `db:"phone"`
	ChildEmail null.String `db:"child_email"`
	Photo      null.Bytes  `db:"photo"`
	PhotoType  null.String `db:"photo_type"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

const accountColumns = `"id", "name", "email", "role", "password", "school", "class", "phone", "child_email", "photo", "photo_type", "created_at", "updated_at"`

type accountRepository struct {
	exec core.DBExecutor
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(exec core.DBExecutor) account.Repository {
	return &accountRepository{exec: exec}
}

func (repo accountRepository) toRow(acc account.Account) accountRow {
	r := accountRow{
		ID:         acc.ID,
		Name:       acc.Name,
		Email:      acc.Email,
		Role:       string(acc.Role),
		Password:   acc.PasswordHash,
		School:     null.NewString(acc.School, acc.School != ""),
		Class:      null.NewString(acc.Class, acc.Class != ""),
		Phone:      null.NewString(acc.Phone, acc.Phone != ""),
		ChildEmail: null.NewString(acc.ChildEmail, acc.ChildEmail != ""),
		CreatedAt:  acc.CreatedAt.UTC(),
		UpdatedAt:  acc.UpdatedAt.UTC(),
	}
	if acc.Photo != nil && len(acc.Photo.Data) > 0 {
		r.Photo = null.BytesFrom(acc.Photo.Data)
		r.PhotoType = null.StringFrom(acc.Photo.ContentType)
	}
	return r
}

func (repo accountRepository) fromRow(r accountRow) account.Account {
	acc := account.Account{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         account.Role(r.Role),
		PasswordHash: r.Password,
		School:       r.School.String,
		Class:        r.Class.String,
		Phone:        r.Phone.String,
		ChildEmail:   r.ChildEmail.String,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.Photo.Valid && len(r.Photo.Bytes) > 0 {
		acc.Photo = &account.Photo{Data: r.Photo.Bytes, ContentType: r.PhotoType.String}
	}
	return acc
}

// trapErr maps "no rows" to account.ErrNotFound and unique violations to account.ErrEmailExists.
func (repo accountRepository) trapErr(err error, op string) error {
	switch {
	case errors.Cause(err) == sql.ErrNoRows:
		return account.ErrNotFound
	case isUniqueViolation(err):
		return account.ErrEmailExists
	}
	return core.NewStoreError(err, op)
}

func (repo accountRepository) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	q := `INSERT INTO "account" (` + accountColumns + `) VALUES
		(:id, :name, :email, :role, :password, :school, :class, :phone, :child_email, :photo, :photo_type, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, repo.toRow(acc)); err != nil {
		return account.Account{}, repo.trapErr(err, "inserting account")
	}
	return acc, nil
}

func (repo accountRepository) GetAccount(ctx context.Context, filter account.GetFilter) (account.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM "account" WHERE true`
	var args []interface{}
	if filter.ID != "" {
		args = append(args, filter.ID)
		q += ` AND "id"::text = $` + strconv.Itoa(len(args))
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		q += ` AND lower("email") = lower($` + strconv.Itoa(len(args)) + `)`
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		q += ` AND "role" = $` + strconv.Itoa(len(args))
	}
	q += ` LIMIT 1`

	var r accountRow
	if err := sqlx.GetContext(ctx, repo.exec, &r, q, args...); err != nil {
		return account.Account{}, repo.trapErr(err, "selecting account")
	}
	return repo.fromRow(r), nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	q := `UPDATE "account" SET
		"name" = :name, "email" = :email, "role" = :role, "password" = :password, "school" = :school,
		"class" = :class, "phone" = :phone, "child_email" = :child_email, "photo" = :photo,
		"photo_type" = :photo_type, "updated_at" = :updated_at
		WHERE "id" = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, repo.toRow(acc))
	if err != nil {
		return account.Account{}, repo.trapErr(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return acc, nil
}

func (repo accountRepository) DeleteAccountByEmail(ctx context.Context, email string) error {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM "account" WHERE lower("email") = lower($1)`, email)
	if err != nil {
		return repo.trapErr(err, "deleting account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.ErrNotFound
	}
	return nil
}
