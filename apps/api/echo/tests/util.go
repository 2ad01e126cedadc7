package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/edugate/apps/api/echo"
	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/auth"
	"github.com/trezcool/edugate/core/otp"
	"github.com/trezcool/edugate/core/session"
	emailsvc "github.com/trezcool/edugate/services/email"
	dummydb "github.com/trezcool/edugate/storage/database/dummy"
	memledger "github.com/trezcool/edugate/storage/ledger/memory"
	testutil "github.com/trezcool/edugate/tests"
)

const pwd = "Tr0ub4dor&3"

var errMissingToken = httpErr{Error: "Access token required"}

type testApp struct {
	*Server
	conf        *core.Config
	accountRepo account.Repository
	adminRepo   account.AdminRepository
	mail        *emailsvc.ConsoleServiceMock
	issuer      *session.Issuer
}

func setup(t *testing.T) *testApp {
	conf := core.NewTestConfig()
	logger := core.NewNopLogger()
	core.ParseEmailTemplates(conf, logger)

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	// set up DB & repos
	db := dummydb.Open()
	app := &testApp{
		conf:        conf,
		accountRepo: dummydb.NewAccountRepository(db),
		adminRepo:   dummydb.NewAdminRepository(db),
		mail:        emailsvc.NewConsoleServiceMock(conf),
		issuer:      session.NewIssuer(conf.SecretKey, conf.Server.JWTExpirationDelta, conf.AppName),
	}

	// set up services
	accounts := account.NewService(app.accountRepo, app.adminRepo)
	ledger := otp.NewLedger(memledger.NewStore(), otp.TTLsFromConfig(conf.OTP))
	notifier := auth.NewNotifier(app.mail)

	// set up server
	app.Server = NewServer("", nil, &Deps{
		Conf:       conf,
		Logger:     logger,
		Accounts:   accounts,
		Registrar:  auth.NewRegistrar(accounts, ledger, notifier, validate, logger),
		Login:      auth.NewLogin(accounts, ledger, notifier, app.issuer, validate),
		Linker:     auth.NewLinker(accounts, ledger, notifier, validate),
		Issuer:     app.issuer,
		Validate:   validate,
		Translator: translator,
	})
	return app
}

// lastCode returns the code most recently mailed to address.
func (app *testApp) lastCode(t *testing.T, address string) string {
	t.Helper()
	msg, ok := app.mail.LastTo(address)
	require.True(t, ok, "no message sent to %s", address)
	return testutil.FindCode(t, msg.TextContent)
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) createAccount(t *testing.T, name, email string, role account.Role, childEmail ...string) account.Account {
	var child string
	if len(childEmail) > 0 {
		child = childEmail[0]
	}
	return testutil.CreateAccount(t, app.accountRepo, name, email, pwd, role, child)
}

func (app *testApp) createAdmin(t *testing.T, email string, isSuper bool) account.Admin {
	return testutil.CreateAdmin(t, app.adminRepo, "Admin", email, pwd, isSuper)
}

func (app *testApp) accountToken(t *testing.T, acc account.Account) string {
	return getToken(t, app.issuer, acc.ID, string(acc.Role))
}

func (app *testApp) adminToken(t *testing.T, adm account.Admin) string {
	return getToken(t, app.issuer, adm.ID, string(account.RoleAdmin))
}

type httpErr struct {
	Error string `json:"error"`
}

type fieldsErr struct {
	Error map[string]string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, issuer *session.Issuer, subjectID, role string) string {
	token, _, err := issuer.Mint(subjectID, role)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func sessionIssuerWithKey(key string) *session.Issuer {
	return session.NewIssuer(key, time.Hour, "test")
}

// expiredToken is signed with the right key but lapsed an hour ago.
func expiredToken(t *testing.T, conf *core.Config, subjectID string) string {
	issuer := session.NewIssuer(conf.SecretKey, -time.Hour, conf.AppName)
	return getToken(t, issuer, subjectID, string(account.RoleStudent))
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchallObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchallObj() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := app.do(newAuthRequest(method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}
