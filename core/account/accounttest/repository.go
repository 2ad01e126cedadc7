// Package accounttest holds the behaviour every account store backing must have.
package accounttest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
)

// Stores builds empty repositories for one test.
type Stores func(t *testing.T) (account.Repository, account.AdminRepository)

func newAccount(email string, role account.Role) account.Account {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return account.Account{
		ID:           uuid.New().String(),
		Name:         "Jane Doe",
		Email:        email,
		Role:         role,
		PasswordHash: []byte("hash"),
		Phone:        "0123456789",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newAdmin(email string, super bool) account.Admin {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return account.Admin{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: []byte("hash"),
		IsSuperAdmin: super,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RunRepositoryTests runs the shared store contract against stores built by newStores.
func RunRepositoryTests(t *testing.T, newStores Stores) {
	ctx := context.Background()

	t.Run("account create and get", func(t *testing.T) {
		accounts, _ := newStores(t)
		acc := newAccount("kid@x.com", account.RoleStudent)
		acc.School = "Hill High"
		acc.Photo = &account.Photo{Data: []byte{0x89, 'P', 'N', 'G'}, ContentType: "image/png"}
		_, err := accounts.CreateAccount(ctx, acc)
		require.NoError(t, err)

		tests := []struct {
			name    string
			filter  account.GetFilter
			wantErr error
		}{
			{name: "by email", filter: account.GetFilter{Email: "kid@x.com"}},
			{name: "by email any case", filter: account.GetFilter{Email: "KID@X.COM"}},
			{name: "by id", filter: account.GetFilter{ID: acc.ID}},
			{name: "by email and role", filter: account.GetFilter{Email: "kid@x.com", Role: account.RoleStudent}},
			{name: "wrong role", filter: account.GetFilter{Email: "kid@x.com", Role: account.RoleTeacher}, wantErr: account.ErrNotFound},
			{name: "unknown email", filter: account.GetFilter{Email: "nobody@x.com"}, wantErr: account.ErrNotFound},
			{name: "unknown id", filter: account.GetFilter{ID: uuid.New().String()}, wantErr: account.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := accounts.GetAccount(ctx, tt.filter)
				if tt.wantErr != nil {
					assert.Equal(t, tt.wantErr, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, acc.ID, got.ID)
				assert.Equal(t, account.RoleStudent, got.Role)
				assert.Equal(t, "Hill High", got.School)
				require.NotNil(t, got.Photo)
				assert.Equal(t, "image/png", got.Photo.ContentType)
				assert.Equal(t, acc.Photo.Data, got.Photo.Data)
			})
		}
	})

	t.Run("account email is unique", func(t *testing.T) {
		accounts, _ := newStores(t)
		_, err := accounts.CreateAccount(ctx, newAccount("a@x.com", account.RoleStudent))
		require.NoError(t, err)
		_, err = accounts.CreateAccount(ctx, newAccount("A@x.com", account.RoleParent))
		assert.Equal(t, account.ErrEmailExists, err)
	})

	t.Run("email is unique across accounts and admins", func(t *testing.T) {
		accounts, admins := newStores(t)
		adm, err := admins.CreateAdmin(ctx, newAdmin("both@x.com", false))
		require.NoError(t, err)
		acc, err := accounts.CreateAccount(ctx, newAccount("kid@x.com", account.RoleStudent))
		require.NoError(t, err)

		_, err = accounts.CreateAccount(ctx, newAccount("Both@x.com", account.RoleStudent))
		assert.Equal(t, account.ErrEmailExists, err)
		_, err = admins.CreateAdmin(ctx, newAdmin("KID@x.com", true))
		assert.Equal(t, account.ErrEmailExists, err)

		acc.Email = "both@x.com"
		_, err = accounts.UpdateAccount(ctx, acc)
		assert.Equal(t, account.ErrEmailExists, err)

		_, err = admins.GetAdmin(ctx, account.AdminFilter{ID: adm.ID})
		assert.NoError(t, err, "the admin is untouched")
		_, err = accounts.GetAccount(ctx, account.GetFilter{Email: "both@x.com"})
		assert.Equal(t, account.ErrNotFound, err)

		// a released address can be claimed by the other kind
		require.NoError(t, admins.DeleteAdminByEmail(ctx, "both@x.com"))
		_, err = accounts.CreateAccount(ctx, newAccount("both@x.com", account.RoleTeacher))
		assert.NoError(t, err)
	})

	t.Run("account update", func(t *testing.T) {
		accounts, _ := newStores(t)
		acc, err := accounts.CreateAccount(ctx, newAccount("p@x.com", account.RoleParent))
		require.NoError(t, err)

		acc.Role = account.RoleTeacher
		acc.ChildEmail = ""
		acc.Name = "Mr Doe"
		_, err = accounts.UpdateAccount(ctx, acc)
		require.NoError(t, err)

		got, err := accounts.GetAccount(ctx, account.GetFilter{ID: acc.ID})
		require.NoError(t, err)
		assert.Equal(t, account.RoleTeacher, got.Role)
		assert.Equal(t, "Mr Doe", got.Name)

		_, err = accounts.UpdateAccount(ctx, newAccount("ghost@x.com", account.RoleStudent))
		assert.Equal(t, account.ErrNotFound, err)
	})

	t.Run("account delete", func(t *testing.T) {
		accounts, _ := newStores(t)
		_, err := accounts.CreateAccount(ctx, newAccount("a@x.com", account.RoleTeacher))
		require.NoError(t, err)

		require.NoError(t, accounts.DeleteAccountByEmail(ctx, "A@X.com"))
		_, err = accounts.GetAccount(ctx, account.GetFilter{Email: "a@x.com"})
		assert.Equal(t, account.ErrNotFound, err)
		assert.Equal(t, account.ErrNotFound, accounts.DeleteAccountByEmail(ctx, "a@x.com"))
	})

	t.Run("admins", func(t *testing.T) {
		_, admins := newStores(t)
		first := newAdmin("root@x.com", true)
		second := newAdmin("ops@x.com", false)
		second.CreatedAt = first.CreatedAt.Add(time.Second)
		for _, adm := range []account.Admin{first, second} {
			_, err := admins.CreateAdmin(ctx, adm)
			require.NoError(t, err)
		}

		_, err := admins.CreateAdmin(ctx, newAdmin("ROOT@x.com", false))
		assert.Equal(t, account.ErrEmailExists, err)

		got, err := admins.GetAdmin(ctx, account.AdminFilter{Email: "Root@X.com"})
		require.NoError(t, err)
		assert.True(t, got.IsSuperAdmin)
		_, err = admins.GetAdmin(ctx, account.AdminFilter{ID: uuid.New().String()})
		assert.Equal(t, account.ErrAdminNotFound, err)

		list, err := admins.QueryAdmins(ctx, nil)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "root@x.com", list[0].Email, "defaults to creation order")

		list, err = admins.QueryAdmins(ctx, []core.DBOrdering{{Field: "email", Ascending: true}})
		require.NoError(t, err)
		assert.Equal(t, "ops@x.com", list[0].Email)

		got.IsSuperAdmin = false
		_, err = admins.UpdateAdmin(ctx, got)
		require.NoError(t, err)
		got, err = admins.GetAdmin(ctx, account.AdminFilter{ID: first.ID})
		require.NoError(t, err)
		assert.False(t, got.IsSuperAdmin)

		require.NoError(t, admins.DeleteAdminByEmail(ctx, "ops@x.com"))
		assert.Equal(t, account.ErrAdminNotFound, admins.DeleteAdminByEmail(ctx, "ops@x.com"))
	})
}
