package logsvc

import (
	"os"
	"time"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
)

// RollbarLogger reports to Rollbar and writes structured lines through logrus.
type RollbarLogger struct {
	log *logrus.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	log := logrus.New()
	log.SetOutput(os.Stdout)
	if conf.Debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	return &RollbarLogger{log: log}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, account.Account | account.Admin
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, *logrus.Entry) {
	var personSet bool
	entry := logrus.NewEntry(l.log)
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)

	setPerson := func(id, name, email string) {
		if !personSet { // only set one subject
			rollbar.SetPerson(id, name, email)
			entry = entry.WithField("subject_id", id)
			personSet = true
		}
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case account.Account:
			setPerson(v.ID, v.Name, v.Email)
		case account.Admin:
			setPerson(v.ID, v.Name, v.Email)
		case error:
			entry = entry.WithError(v)
			newArgs = append(newArgs, v)
		case map[string]interface{}:
			entry = entry.WithFields(v)
			newArgs = append(newArgs, v)
		default:
			newArgs = append(newArgs, v)
		}
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return newArgs, entry
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Debug(rArgs...)
	entry.Debug(msg)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Info(rArgs...)
	entry.Info(msg)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Warning(rArgs...)
	entry.Warn(msg)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Error(rArgs...)
	entry.Error(msg)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rArgs, entry := l.prepare(msg, args)
	rollbar.Critical(rArgs...)
	rollbar.Wait()
	entry.Fatal(msg)
}
