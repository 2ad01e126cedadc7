package tests

import (
	. "github.com/trezcool/edugate/apps/api/echo"

	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edugate/core/account"
)

func Test_parentApi_linking(t *testing.T) {
	app := setup(t)
	kid := app.createAccount(t, "Kid", "kid@x.com", account.RoleStudent)
	app.createAccount(t, "Tea", "tea@x.com", account.RoleTeacher)

	childEmail := func(email string) []byte { return marchallObj(t, map[string]string{"child_email": email}) }
	tests := []httpTest{
		{
			name: "teacher is not a child", path: "/api/parent/verify-child-email", body: childEmail("tea@x.com"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "No student account found with this email"}),
		},
		{
			name: "unknown child", path: "/api/parent/verify-child-email", body: childEmail("who@x.com"),
			wantCode: http.StatusNotFound,
		},
		{
			name: "bad child email", path: "/api/parent/verify-child-email", body: childEmail("kid"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fieldsErr{Error: map[string]string{"child_email": "must be a valid email address"}}),
		},
		{
			name: "student", path: "/api/parent/verify-child-email", body: childEmail(" KID@x.com"),
			wantCode: http.StatusOK, wantData: marchallObj(t, MessageResponse{Message: "OTP sent to child's email"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
	}
	runHTTPTests(t, app, tests)

	childCode := app.lastCode(t, "kid@x.com")

	// the parent registers before the child approves
	rec := app.do(newRequest(http.MethodPost, "/api/parent/send-otp", marchallObj(t, map[string]string{"email": "mum@x.com"})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	parentCode := app.lastCode(t, "mum@x.com")

	parentBody := func() []byte {
		return marchallObj(t, map[string]string{
			"name":        "Mum",
			"email":       "mum@x.com",
			"password":    pwd,
			"child_email": "kid@x.com",
			"otp":         parentCode,
		})
	}
	runHTTPTests(t, app, []httpTest{
		{
			name: "child not verified", method: http.MethodPost, path: "/api/parent/register", body: parentBody(),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fieldsErr{Error: map[string]string{"child_email": "child email has not been verified"}}),
		},
		{
			name: "wrong child code", method: http.MethodPost, path: "/api/parent/verify-child-otp",
			body:     marchallObj(t, map[string]string{"child_email": "kid@x.com", "otp": otherCode(childCode)}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Invalid or expired OTP"}),
		},
		{
			name: "parent code does not verify the child", method: http.MethodPost, path: "/api/parent/verify-child-otp",
			body:     marchallObj(t, map[string]string{"child_email": "kid@x.com", "otp": parentCode}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "child code", method: http.MethodPost, path: "/api/parent/verify-child-otp",
			body:     marchallObj(t, map[string]string{"child_email": "kid@x.com", "otp": childCode}),
			wantCode: http.StatusOK, wantData: marchallObj(t, MessageResponse{Message: "Child email verified"}),
		},
	})

	rec = app.do(newRequest(http.MethodPost, "/api/parent/register", parentBody()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg RegisterResponse
	unmarchallObj(t, rec, &reg)
	assert.Equal(t, account.RoleParent, reg.User.Role)

	parent, err := app.accountRepo.GetAccount(context.Background(), account.GetFilter{Email: "mum@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "kid@x.com", parent.ChildEmail)

	t.Run("child profile", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodGet, "/api/parent/child-profile", app.accountToken(t, parent)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp ChildProfileResponse
		unmarchallObj(t, rec, &resp)
		assert.Equal(t, kid.ID, resp.Child.ID)
		assert.Equal(t, "kid@x.com", resp.Child.Email)
	})
}

func Test_parentApi_childProfile(t *testing.T) {
	app := setup(t)
	stu := app.createAccount(t, "Stu", "stu@x.com", account.RoleStudent)
	lonely := app.createAccount(t, "Dad", "dad@x.com", account.RoleParent)
	orphaned := app.createAccount(t, "Mum", "mum@x.com", account.RoleParent, "gone@x.com")
	adm := app.createAdmin(t, "root@x.com", true)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/api/parent/child-profile", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student", path: "/api/parent/child-profile", token: app.accountToken(t, stu), wantCode: http.StatusForbidden},
		{name: "admin", path: "/api/parent/child-profile", token: app.adminToken(t, adm), wantCode: http.StatusForbidden},
		{
			name: "no child linked", path: "/api/parent/child-profile", token: app.accountToken(t, lonely),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "No child linked to this account"}),
		},
		{
			name: "child deleted", path: "/api/parent/child-profile", token: app.accountToken(t, orphaned),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "No student account found with this email"}),
		},
	})
}
