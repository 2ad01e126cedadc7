package main

import (
	"context"
	"errors"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Migrate  // mockable

	errNoPassword = errors.New("password is required")
	errNoDatabase = errors.New("migrations need the postgres database backend")
)

type commandLine struct {
	accounts *account.Service
	validate *validator.Validate
	db       *sqlx.DB // nil with the memory backend
}

func (cli *commandLine) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Edugate administration tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(cli.addAdminCmd())
	cmd.AddCommand(cli.resetPasswordCmd())
	cmd.AddCommand(cli.migrateCmd())
	return cmd
}

func (cli *commandLine) run(args []string) error {
	cmd := cli.rootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(cmd *cobra.Command) (string, error) {
	cmd.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cmd.Println()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(pwd)) == "" {
		return "", errNoPassword
	}
	return string(pwd), nil
}
