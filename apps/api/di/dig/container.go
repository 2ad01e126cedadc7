package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/edugate/apps/api/echo"
	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/auth"
	"github.com/trezcool/edugate/core/otp"
	"github.com/trezcool/edugate/core/session"
	emailsvc "github.com/trezcool/edugate/services/email"
	logsvc "github.com/trezcool/edugate/services/logger"
	"github.com/trezcool/edugate/storage/database"
	dummydb "github.com/trezcool/edugate/storage/database/dummy"
	sqlxrepos "github.com/trezcool/edugate/storage/database/sqlx"
	memledger "github.com/trezcool/edugate/storage/ledger/memory"
	redisledger "github.com/trezcool/edugate/storage/ledger/redis"
)

const setupTimeout = 30 * time.Second

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Storage is everything the persistence backends hand to the rest of the app.
	Storage struct {
		dig.Out
		Accounts account.Repository
		Admins   account.AdminRepository
		Ledger   otp.Store
		Closer   Closer
	}

	// Closer releases the connections opened by the storage backends.
	Closer func() error

	ServerParams struct {
		dig.In
		Conf       *core.Config
		Logger     core.Logger
		Accounts   *account.Service
		Registrar  *auth.Registrar
		Login      *auth.Login
		Linker     *auth.Linker
		Issuer     *session.Issuer
		Validate   *validator.Validate
		Translator ut.Translator
	}
)

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	var closers []func() error
	st := Storage{}

	switch conf.Database.Backend {
	case core.BackendMemory:
		db := dummydb.Open()
		st.Accounts = dummydb.NewAccountRepository(db)
		st.Admins = dummydb.NewAdminRepository(db)
	default:
		setUp := func() error {
			if err := database.CreateIfNotExist(ctx, conf); err != nil {
				return err
			}
			db, err := database.Open(ctx, conf)
			if err != nil {
				return err
			}
			closers = append(closers, db.Close)
			if err = database.Migrate(ctx, db, "up"); err != nil {
				return err
			}
			st.Accounts = sqlxrepos.NewAccountRepository(db)
			st.Admins = sqlxrepos.NewAdminRepository(db)
			return nil
		}
		if err := setUp(); err != nil {
			loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
	}

	switch conf.OTP.Backend {
	case core.BackendRedis:
		client, err := redisledger.NewClient(ctx, conf.Redis)
		if err != nil {
			loggerParam.Logger.Fatal(fmt.Sprintf("setting up otp ledger: %v", err), err)
		}
		closers = append(closers, client.Close)
		st.Ledger = redisledger.NewStore(client, conf.OTP.KeyPrefix)
	default:
		st.Ledger = memledger.NewStore()
	}

	st.Closer = func() error {
		var firstErr error
		for _, closeFn := range closers {
			if err := closeFn(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return st
}

func newLedger(conf *core.Config, store otp.Store) *otp.Ledger {
	return otp.NewLedger(store, otp.TTLsFromConfig(conf.OTP))
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newIssuer(conf *core.Config) *session.Issuer {
	validity := conf.Server.JWTExpirationDelta
	if validity <= 0 {
		validity = 7 * 24 * time.Hour
	}
	return session.NewIssuer(conf.SecretKey, validity, conf.AppName)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newServer(p ServerParams) *echoapi.Server {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	return echoapi.NewServer(p.Conf.Server.Host, shutdown, &echoapi.Deps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Accounts:   p.Accounts,
		Registrar:  p.Registrar,
		Login:      p.Login,
		Linker:     p.Linker,
		Issuer:     p.Issuer,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

type NewConfigFunc func() *core.Config

// New returns a new dependency injection dig.Container
func New(newConfig ...NewConfigFunc) *dig.Container {
	c := dig.New()

	confFunc := core.NewConfig
	if len(newConfig) > 0 {
		confFunc = newConfig[0]
	}

	must(c.Provide(confFunc))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newLedger))
	must(c.Provide(newEmailService))
	must(c.Provide(account.NewService))
	must(c.Provide(auth.NewNotifier))
	must(c.Provide(auth.NewRegistrar))
	must(c.Provide(auth.NewLogin))
	must(c.Provide(auth.NewLinker))
	must(c.Provide(newIssuer))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
