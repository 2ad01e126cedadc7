package main

import (
	"github.com/spf13/cobra"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset the password of any account or admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			if err := cli.accounts.ResetPassword(cmd.Context(), email, pwd); err != nil {
				return err
			}
			cmd.Printf("password of %s reset\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "the account's email. The password will be prompted next.")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
