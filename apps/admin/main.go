package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	logsvc "github.com/trezcool/edugate/services/logger"
	"github.com/trezcool/edugate/storage/database"
	dummydb "github.com/trezcool/edugate/storage/database/dummy"
	sqlxrepos "github.com/trezcool/edugate/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(conf)
	logger.Enable(!conf.Debug)

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	cli := commandLine{validate: validate}

	if conf.Database.Backend == core.BackendMemory {
		db := dummydb.Open()
		cli.accounts = account.NewService(dummydb.NewAccountRepository(db), dummydb.NewAdminRepository(db))
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := database.Open(ctx, conf)
		cancel()
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		cli.db = db
		cli.accounts = account.NewService(sqlxrepos.NewAccountRepository(db), sqlxrepos.NewAdminRepository(db))
	}

	code := 0
	if err := cli.run(os.Args[1:]); err != nil {
		logger.Error(fmt.Sprintf("admin: %v", err), err)
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		code = 1
	}
	if cli.db != nil {
		_ = cli.db.Close()
	}
	os.Exit(code)
}
