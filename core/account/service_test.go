package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	dummydb "github.com/trezcool/edugate/storage/database/dummy"
	testutil "github.com/trezcool/edugate/tests"
)

const pwd = "Tr0ub4dor&3"

func newService(t *testing.T) (*account.Service, account.Repository, account.AdminRepository) {
	db := dummydb.Open()
	accounts, admins := dummydb.NewAccountRepository(db), dummydb.NewAdminRepository(db)
	return account.NewService(accounts, admins), accounts, admins
}

func TestService_Resolve(t *testing.T) {
	svc, accounts, admins := newService(t)
	ctx := context.Background()
	stu := testutil.CreateAccount(t, accounts, "Stu", "stu@x.com", pwd, account.RoleStudent, "")
	adm := testutil.CreateAdmin(t, admins, "Root", "root@x.com", pwd, true)

	tests := []struct {
		name     string
		email    string
		wantKind account.Kind
		wantRole account.Role
	}{
		{name: "ordinary", email: " STU@x.com ", wantKind: account.KindOrdinary, wantRole: account.RoleStudent},
		{name: "privileged", email: "Root@x.com", wantKind: account.KindPrivileged, wantRole: account.RoleAdmin},
		{name: "none", email: "who@x.com", wantKind: account.KindNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Resolve(ctx, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantRole, res.Role())
		})
	}

	res, err := svc.ResolveID(ctx, stu.ID)
	require.NoError(t, err)
	assert.Equal(t, account.KindOrdinary, res.Kind)
	res, err = svc.ResolveID(ctx, adm.ID)
	require.NoError(t, err)
	assert.True(t, res.IsSuper())
	res, err = svc.ResolveID(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, account.KindNone, res.Kind)
}

func TestService_CreateAndUpgrade(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, account.NewAccount{
		Role: account.RoleParent, Name: "Mum", Email: "Mum@x.com", Password: pwd, ChildEmail: "kid@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "mum@x.com", parent.Email)
	assert.Equal(t, "kid@x.com", parent.ChildEmail)
	assert.NoError(t, parent.CheckPassword(pwd))

	_, err = svc.Create(ctx, account.NewAccount{Role: account.RoleStudent, Name: "Dup", Email: "mum@x.com", Password: pwd})
	assert.Equal(t, account.ErrEmailExists, err)

	teacher, err := svc.Upgrade(ctx, parent, account.NewAccount{
		Role: account.RoleTeacher, Name: "Ms Mum", Email: "mum@x.com", Password: "n3w-Passw0rd",
	})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, teacher.ID)
	assert.Equal(t, account.RoleTeacher, teacher.Role)
	assert.Empty(t, teacher.ChildEmail)
	assert.NoError(t, teacher.CheckPassword("n3w-Passw0rd"))

	stored, err := svc.GetByEmailAndRole(ctx, "mum@x.com", account.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, "Ms Mum", stored.Name)
}

func TestService_CreateOverAdminEmail(t *testing.T) {
	svc, _, admins := newService(t)
	ctx := context.Background()
	adm := testutil.CreateAdmin(t, admins, "Both", "both@x.com", pwd, false)

	_, err := svc.Create(ctx, account.NewAccount{Role: account.RoleStudent, Name: "Stu", Email: "both@x.com", Password: pwd})
	assert.Equal(t, account.ErrEmailExists, err)

	res, err := svc.Resolve(ctx, "both@x.com")
	require.NoError(t, err)
	assert.Equal(t, account.KindPrivileged, res.Kind)
	assert.Equal(t, adm.ID, res.Admin.ID)
}

func TestService_UpdateProfile(t *testing.T) {
	svc, accounts, admins := newService(t)
	ctx := context.Background()
	acc := testutil.CreateAccount(t, accounts, "Stu", "stu@x.com", pwd, account.RoleStudent, "")
	adm := testutil.CreateAdmin(t, admins, "Root", "root@x.com", pwd, false)
	str := func(s string) *string { return &s }

	acc, err := svc.UpdateProfile(ctx, acc, account.UpdateProfile{
		Name:   str("Stuart"),
		School: str("Hill High"),
		Photo:  "data:image/png;base64,iVBORw0KGgo=",
	})
	require.NoError(t, err)
	assert.Equal(t, "Stuart", acc.Name)
	assert.Equal(t, "Hill High", acc.School)
	require.NotNil(t, acc.Photo)
	assert.Equal(t, "image/png", acc.Photo.ContentType)
	assert.NotNil(t, acc.Profile().Photo)

	acc, err = svc.UpdateProfile(ctx, acc, account.UpdateProfile{Name: str(""), DeletePhoto: true})
	require.NoError(t, err)
	assert.Equal(t, "Stuart", acc.Name, "an empty name is ignored")
	assert.Nil(t, acc.Photo)

	adm, err = svc.UpdateAdminProfile(ctx, adm, account.UpdateProfile{Phone: str("0123456789"), School: str("ignored")})
	require.NoError(t, err)
	assert.Equal(t, "0123456789", adm.Phone)
}

func TestService_Admins(t *testing.T) {
	svc, accounts, _ := newService(t)
	ctx := context.Background()
	testutil.CreateAccount(t, accounts, "Tea", "tea@x.com", pwd, account.RoleTeacher, "")

	adm, err := svc.AddAdmin(ctx, account.NewAdmin{Email: "ops@x.com", Password: pwd})
	require.NoError(t, err)
	assert.False(t, adm.IsSuperAdmin)
	assert.NoError(t, adm.CheckPassword(pwd))

	_, err = svc.AddAdmin(ctx, account.NewAdmin{Email: "OPS@x.com", Password: pwd})
	assert.True(t, core.IsConflict(err))
	_, err = svc.AddAdmin(ctx, account.NewAdmin{Email: "tea@x.com", Password: pwd})
	require.Error(t, err)
	assert.EqualError(t, err, "Email already registered as Teacher.")

	saved, err := svc.SaveAdmin(ctx, account.NewAdmin{Email: "ops@x.com", Password: "n3w-Passw0rd", IsSuperAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, adm.ID, saved.ID)
	assert.True(t, saved.IsSuperAdmin)

	_, err = svc.SaveAdmin(ctx, account.NewAdmin{Email: "root@x.com", Password: pwd, IsSuperAdmin: true})
	require.NoError(t, err)

	list, err := svc.QueryAdmins(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.RemoveAdmin(ctx, "Ops@x.com"))
	assert.Equal(t, account.ErrAdminNotFound, svc.RemoveAdmin(ctx, "ops@x.com"))
}

func TestService_ResetPassword(t *testing.T) {
	svc, accounts, admins := newService(t)
	ctx := context.Background()
	testutil.CreateAccount(t, accounts, "Stu", "stu@x.com", pwd, account.RoleStudent, "")
	testutil.CreateAdmin(t, admins, "Root", "root@x.com", pwd, true)

	for _, email := range []string{"stu@x.com", "root@x.com"} {
		require.NoError(t, svc.ResetPassword(ctx, email, "n3w-Passw0rd"))
		res, err := svc.Resolve(ctx, email)
		require.NoError(t, err)
		if res.Kind == account.KindOrdinary {
			assert.NoError(t, res.Account.CheckPassword("n3w-Passw0rd"))
		} else {
			assert.NoError(t, res.Admin.CheckPassword("n3w-Passw0rd"))
		}
	}

	err := svc.ResetPassword(ctx, "who@x.com", "n3w-Passw0rd")
	assert.Error(t, err)
}

func TestService_Delete(t *testing.T) {
	svc, accounts, _ := newService(t)
	ctx := context.Background()
	testutil.CreateAccount(t, accounts, "Stu", "stu@x.com", pwd, account.RoleStudent, "")

	require.NoError(t, svc.Delete(ctx, " STU@x.com"))
	_, err := svc.GetByEmail(ctx, "stu@x.com")
	assert.Equal(t, account.ErrNotFound, err)
	assert.Equal(t, account.ErrNotFound, svc.Delete(ctx, "stu@x.com"))
}
