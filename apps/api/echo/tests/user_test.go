package tests

import (
	. "github.com/trezcool/edugate/apps/api/echo"

	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edugate/core/account"
)

// otherCode returns a well-formed code that is not code.
func otherCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func registrationBody(t *testing.T, role account.Role, email, code string) []byte {
	return marchallObj(t, map[string]string{
		"role":     string(role),
		"name":     "Jane Doe",
		"email":    email,
		"password": pwd,
		"phone":    "0123456789",
		"otp":      code,
	})
}

func Test_userApi_registrationAndLogin(t *testing.T) {
	app := setup(t)
	email := "jane@x.com"

	rec := app.do(newRequest(http.MethodPost, "/api/user/send-register-otp", marchallObj(t, map[string]string{"email": " Jane@X.com "})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := app.lastCode(t, email)

	invalidCode := marchallObj(t, httpErr{Error: "Invalid or expired OTP"})
	runHTTPTests(t, app, []httpTest{
		{
			name: "verify wrong code", method: http.MethodPost, path: "/api/user/verify-register-otp",
			body:     marchallObj(t, map[string]string{"email": email, "otp": otherCode(code)}),
			wantCode: http.StatusBadRequest, wantData: invalidCode,
		},
		{
			name: "verify right code", method: http.MethodPost, path: "/api/user/verify-register-otp",
			body:     marchallObj(t, map[string]string{"email": email, "otp": code}),
			wantCode: http.StatusOK, wantData: marchallObj(t, MessageResponse{Message: "OTP verified"}),
		},
		{
			name: "verify again keeps the code pending", method: http.MethodPost, path: "/api/user/verify-register-otp",
			body:     marchallObj(t, map[string]string{"email": email, "otp": code}),
			wantCode: http.StatusOK,
		},
	})

	rec = app.do(newRequest(http.MethodPost, "/api/user/register", registrationBody(t, account.RoleStudent, email, code)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg RegisterResponse
	unmarchallObj(t, rec, &reg)
	assert.Equal(t, "Student registered successfully", reg.Message)
	assert.Equal(t, email, reg.User.Email)
	assert.Equal(t, account.RoleStudent, reg.User.Role)

	runHTTPTests(t, app, []httpTest{
		{
			name: "code is single-use", method: http.MethodPost, path: "/api/user/register",
			body:     registrationBody(t, account.RoleStudent, email, code),
			wantCode: http.StatusBadRequest, wantData: invalidCode,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/user/login",
			body:     marchallObj(t, map[string]string{"email": email, "password": "nope-nope"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "Incorrect password"}),
		},
		{
			name: "unknown address", method: http.MethodPost, path: "/api/user/login",
			body:     marchallObj(t, map[string]string{"email": "who@x.com", "password": pwd}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "User not found"}),
		},
		{
			name: "missing password", method: http.MethodPost, path: "/api/user/login",
			body:     marchallObj(t, map[string]string{"email": email}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fieldsErr{Error: map[string]string{"password": "this field is required"}}),
		},
	})

	t.Run("password login", func(t *testing.T) {
		rec := app.do(newRequest(http.MethodPost, "/api/user/login", marchallObj(t, map[string]string{"email": "JANE@x.com", "password": pwd})))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sess SessionResponse
		unmarchallObj(t, rec, &sess)
		assert.Equal(t, account.RoleStudent, sess.Role)
		require.NotNil(t, sess.User)
		assert.Equal(t, reg.User.ID, sess.User.ID)
		assert.Nil(t, sess.Admin)

		claims, err := app.issuer.Verify(sess.Token)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, claims.Subject)
		assert.Equal(t, "Student", claims.Role)
	})

	t.Run("code login", func(t *testing.T) {
		rec := app.do(newRequest(http.MethodPost, "/api/user/send-login-otp", marchallObj(t, map[string]string{"email": email})))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		code := app.lastCode(t, email)

		body := marchallObj(t, map[string]string{"email": email, "otp": code})
		rec = app.do(newRequest(http.MethodPost, "/api/user/verify-login-otp", body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sess SessionResponse
		unmarchallObj(t, rec, &sess)
		assert.Equal(t, account.RoleStudent, sess.Role)
		assert.NotEmpty(t, sess.Token)

		rec = app.do(newRequest(http.MethodPost, "/api/user/verify-login-otp", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "login codes are single-use")
	})

	t.Run("login code for unknown address", func(t *testing.T) {
		rec := app.do(newRequest(http.MethodPost, "/api/user/send-login-otp", marchallObj(t, map[string]string{"email": "who@x.com"})))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		_, sent := app.mail.LastTo("who@x.com")
		assert.False(t, sent)
	})
}

func Test_userApi_registerLongPassword(t *testing.T) {
	app := setup(t)

	rec := app.do(newRequest(http.MethodPost, "/api/student/send-otp", marchallObj(t, map[string]string{"email": "long@x.com"})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := app.lastCode(t, "long@x.com")

	body := marchallObj(t, map[string]string{
		"name":     "Jane Doe",
		"email":    "long@x.com",
		"password": strings.Repeat("aB3", 30),
		"otp":      code,
	})
	runHTTPTests(t, app, []httpTest{
		{
			name: "password over 72 bytes", method: http.MethodPost, path: "/api/student/register", body: body,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fieldsErr{Error: map[string]string{"password": "password must not be longer than 72 bytes"}}),
		},
		{
			name: "same code still registers", method: http.MethodPost, path: "/api/student/register",
			body:     registrationBody(t, account.RoleStudent, "long@x.com", code),
			wantCode: http.StatusCreated,
		},
	})
}

func Test_roleApi_sendOtp(t *testing.T) {
	app := setup(t)
	app.createAccount(t, "Tea", "tea@x.com", account.RoleTeacher)
	app.createAccount(t, "Mum", "mum@x.com", account.RoleParent)
	app.createAdmin(t, "root@x.com", false)

	tests := []httpTest{
		{
			name: "admin address", path: "/api/student/send-otp",
			body:     marchallObj(t, map[string]string{"email": "root@x.com"}),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "You cannot use this email. It is an admin ID. Please use a different email."}),
		},
		{
			name: "teacher address as student", path: "/api/student/send-otp",
			body:     marchallObj(t, map[string]string{"email": "tea@x.com"}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "Email already registered as Teacher."}),
		},
		{
			name: "teacher address as parent", path: "/api/parent/send-otp",
			body:     marchallObj(t, map[string]string{"email": "tea@x.com"}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "Email already registered as Teacher."}),
		},
		{
			name: "parent address as teacher", path: "/api/teacher/send-otp",
			body:     marchallObj(t, map[string]string{"email": "mum@x.com"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, MessageResponse{Message: "OTP sent to email"}),
		},
		{
			name: "bad address", path: "/api/teacher/send-otp",
			body:     marchallObj(t, map[string]string{"email": "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fieldsErr{Error: map[string]string{"email": "must be a valid email address"}}),
		},
		{
			name: "new address", path: "/api/parent/send-otp",
			body:     marchallObj(t, map[string]string{"email": "new@x.com"}),
			wantCode: http.StatusOK,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
	}
	runHTTPTests(t, app, tests)

	msg, ok := app.mail.LastTo("new@x.com")
	require.True(t, ok)
	assert.Contains(t, msg.Subject, "Parent Registration OTP")
}

func Test_roleApi_register(t *testing.T) {
	app := setup(t)
	parent := app.createAccount(t, "Mum", "mum@x.com", account.RoleParent)

	rec := app.do(newRequest(http.MethodPost, "/api/teacher/send-otp", marchallObj(t, map[string]string{"email": "mum@x.com"})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := app.lastCode(t, "mum@x.com")

	t.Run("route decides the role", func(t *testing.T) {
		body := registrationBody(t, account.RoleStudent, "mum@x.com", code)
		rec := app.do(newRequest(http.MethodPost, "/api/teacher/register", body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var reg RegisterResponse
		unmarchallObj(t, rec, &reg)
		assert.Equal(t, account.RoleTeacher, reg.User.Role)
		assert.Equal(t, parent.ID, reg.User.ID, "a parent is upgraded in place")
	})

	t.Run("validation errors are per field", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": "x@x.com", "password": pwd, "otp": "123456"})
		rec := app.do(newRequest(http.MethodPost, "/api/student/register", body))
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		var errs fieldsErr
		unmarchallObj(t, rec, &errs)
		assert.Equal(t, "this field is required", errs.Error["name"])
	})
}

func Test_userApi_find(t *testing.T) {
	app := setup(t)
	tea := app.createAccount(t, "Tea", "tea@x.com", account.RoleTeacher)
	adm := app.createAdmin(t, "root@x.com", true)

	for _, path := range []string{"/api/user/find", "/api/user/find-by-email"} {
		t.Run(path, func(t *testing.T) {
			rec := app.do(newRequest(http.MethodPost, path, marchallObj(t, map[string]string{"email": "TEA@x.com"})))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var found FindResponse
			unmarchallObj(t, rec, &found)
			assert.Equal(t, "user", found.Type)
			require.NotNil(t, found.User)
			assert.Equal(t, tea.ID, found.User.ID)
			assert.Nil(t, found.Admin)
		})
	}

	rec := app.do(newRequest(http.MethodPost, "/api/user/find", marchallObj(t, map[string]string{"email": "root@x.com"})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var found FindResponse
	unmarchallObj(t, rec, &found)
	assert.Equal(t, "admin", found.Type)
	require.NotNil(t, found.Admin)
	assert.Equal(t, adm.ID, found.Admin.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	tests := []httpTest{
		{
			name: "unknown", path: "/api/user/find", body: marchallObj(t, map[string]string{"email": "who@x.com"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "User not found"}),
		},
		{
			name: "teacher by student route", path: "/api/student/find", body: marchallObj(t, map[string]string{"email": "tea@x.com"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Student not found"}),
		},
		{
			name: "teacher by teacher route", path: "/api/teacher/find", body: marchallObj(t, map[string]string{"email": "tea@x.com"}),
			wantCode: http.StatusOK,
		},
		{
			name: "missing email", path: "/api/user/find", body: marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fieldsErr{Error: map[string]string{"email": "this field is required"}}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
	}
	runHTTPTests(t, app, tests)
}

func Test_userApi_destroy(t *testing.T) {
	app := setup(t)
	stu := app.createAccount(t, "Stu", "stu@x.com", account.RoleStudent)
	tea := app.createAccount(t, "Tea", "tea@x.com", account.RoleTeacher)
	super := app.createAdmin(t, "root@x.com", true)
	plain := app.createAdmin(t, "ops@x.com", false)

	body := func(email string) []byte { return marchallObj(t, map[string]string{"email": email}) }
	tests := []httpTest{
		{name: "auth required", path: "/api/user/delete", body: body("stu@x.com"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "someone else", path: "/api/user/delete", body: body("stu@x.com"), token: app.accountToken(t, tea),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "plain admin", path: "/api/user/delete", body: body("stu@x.com"), token: app.adminToken(t, plain),
			wantCode: http.StatusForbidden,
		},
		{
			name: "self", path: "/api/user/delete", body: body("STU@x.com"), token: app.accountToken(t, stu),
			wantCode: http.StatusOK, wantData: marchallObj(t, MessageResponse{Message: "Account deleted successfully"}),
		},
		{
			name: "super admin", path: "/api/user/delete", body: body("tea@x.com"), token: app.adminToken(t, super),
			wantCode: http.StatusOK,
		},
		{
			name: "already gone", path: "/api/user/delete", body: body("tea@x.com"), token: app.adminToken(t, super),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "User not found"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
	}
	runHTTPTests(t, app, tests)
}

func Test_notFoundRoute(t *testing.T) {
	app := setup(t)
	rec := app.do(newRequest(http.MethodGet, "/api/nope"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
