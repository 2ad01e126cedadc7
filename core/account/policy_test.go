package account

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/edugate/core"
)

func TestCheckCodeRequest(t *testing.T) {
	none := Resolution{Kind: KindNone}
	admin := Resolution{Kind: KindPrivileged, Admin: Admin{Email: "root@x.com"}}
	holding := func(role Role) Resolution {
		return Resolution{Kind: KindOrdinary, Account: Account{Email: "a@x.com", Role: role}}
	}

	tests := []struct {
		name    string
		res     Resolution
		role    Role
		wantErr string
	}{
		{name: "free address", res: none, role: RoleStudent},
		{name: "free address generic", res: none},
		{name: "admin address", res: admin, role: RoleTeacher, wantErr: msgAdminReserved},
		{name: "admin address generic", res: admin, wantErr: msgAdminReserved},
		{name: "student wants student", res: holding(RoleStudent), role: RoleStudent, wantErr: "Email already registered as Student."},
		{name: "student wants teacher", res: holding(RoleStudent), role: RoleTeacher, wantErr: "Email already registered as Student."},
		{name: "teacher wants parent", res: holding(RoleTeacher), role: RoleParent, wantErr: "Email already registered as Teacher."},
		{name: "teacher generic", res: holding(RoleTeacher), wantErr: "Email already registered as Teacher."},
		{name: "parent wants student", res: holding(RoleParent), role: RoleStudent},
		{name: "parent wants teacher", res: holding(RoleParent), role: RoleTeacher},
		{name: "parent wants parent", res: holding(RoleParent), role: RoleParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCodeRequest(tt.res, tt.role)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
			assert.True(t, core.IsConflict(err))
		})
	}
}

func TestCheckCompletion(t *testing.T) {
	holding := func(role Role) Resolution {
		return Resolution{Kind: KindOrdinary, Account: Account{Email: "a@x.com", Role: role}}
	}

	tests := []struct {
		name        string
		res         Resolution
		role        Role
		wantUpgrade bool
		wantErr     string
	}{
		{name: "free address", res: Resolution{Kind: KindNone}, role: RoleParent},
		{name: "admin address", res: Resolution{Kind: KindPrivileged}, role: RoleParent, wantErr: msgAdminReserved},
		{name: "parent becomes student", res: holding(RoleParent), role: RoleStudent, wantUpgrade: true},
		{name: "parent becomes teacher", res: holding(RoleParent), role: RoleTeacher, wantUpgrade: true},
		{name: "parent registers as parent", res: holding(RoleParent), role: RoleParent, wantErr: "Email already registered as Parent."},
		{name: "parent generic", res: holding(RoleParent), wantErr: "Email already registered as Parent."},
		{name: "student", res: holding(RoleStudent), role: RoleTeacher, wantErr: "Email already registered as Student."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upgrade, err := CheckCompletion(tt.res, tt.role)
			assert.Equal(t, tt.wantUpgrade, upgrade)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
			assert.True(t, core.IsConflict(err))
		})
	}
}

func TestResolution_Role(t *testing.T) {
	assert.Equal(t, Role(""), Resolution{}.Role())
	assert.Equal(t, RoleParent, Resolution{Kind: KindOrdinary, Account: Account{Role: RoleParent}}.Role())
	assert.Equal(t, RoleAdmin, Resolution{Kind: KindPrivileged}.Role())
	assert.False(t, Resolution{Kind: KindPrivileged}.IsSuper())
	assert.True(t, Resolution{Kind: KindPrivileged, Admin: Admin{IsSuperAdmin: true}}.IsSuper())
	assert.False(t, Resolution{Kind: KindOrdinary, Admin: Admin{IsSuperAdmin: true}}.IsSuper())
}
