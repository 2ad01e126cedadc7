package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

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

type testEnv struct {
	accountRepo account.Repository
	adminRepo   account.AdminRepository
	accounts    *account.Service
	ledger      *otp.Ledger
	mail        *emailsvc.ConsoleServiceMock
	issuer      *session.Issuer

	registrar *auth.Registrar
	login     *auth.Login
	linker    *auth.Linker
}

func newTestEnv(t *testing.T) *testEnv {
	conf := core.NewTestConfig()
	logger := core.NewNopLogger()
	core.ParseEmailTemplates(conf, logger)

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	db := dummydb.Open()
	env := &testEnv{
		accountRepo: dummydb.NewAccountRepository(db),
		adminRepo:   dummydb.NewAdminRepository(db),
		ledger:      otp.NewLedger(memledger.NewStore(), otp.DefaultTTLs()),
		mail:        emailsvc.NewConsoleServiceMock(conf),
		issuer:      session.NewIssuer(conf.SecretKey, 7*24*time.Hour, conf.AppName),
	}
	env.accounts = account.NewService(env.accountRepo, env.adminRepo)
	notifier := auth.NewNotifier(env.mail)
	env.registrar = auth.NewRegistrar(env.accounts, env.ledger, notifier, validate, logger)
	env.login = auth.NewLogin(env.accounts, env.ledger, notifier, env.issuer, validate)
	env.linker = auth.NewLinker(env.accounts, env.ledger, notifier, validate)
	return env
}

// lastCode returns the code most recently mailed to address.
func (env *testEnv) lastCode(t *testing.T, address string) string {
	t.Helper()
	msg, ok := env.mail.LastTo(address)
	require.True(t, ok, "no message sent to %s", address)
	return testutil.FindCode(t, msg.TextContent)
}

func (env *testEnv) lastSubject(t *testing.T, address string) string {
	t.Helper()
	msg, ok := env.mail.LastTo(address)
	require.True(t, ok, "no message sent to %s", address)
	return msg.Subject
}

// freezeOTPClock pins otp.NowFunc; move time by assigning through the returned pointer.
func freezeOTPClock(t *testing.T) *time.Time {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	otp.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { otp.NowFunc = time.Now })
	return &now
}

func registration(role account.Role, email, code string) account.NewAccount {
	return account.NewAccount{
		Role:     role,
		Name:     "Jane Doe",
		Email:    email,
		Password: pwd,
		Phone:    "0123456789",
		Code:     code,
	}
}

func (env *testEnv) register(t *testing.T, role account.Role, email string) account.Account {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, env.registrar.RequestCode(ctx, role, email))
	acc, err := env.registrar.Register(ctx, registration(role, email, env.lastCode(t, email)))
	require.NoError(t, err)
	return acc
}
