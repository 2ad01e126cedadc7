package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/edugate/core/account"
)

func (cli *commandLine) addAdminCmd() *cobra.Command {
	var na account.NewAdmin

	cmd := &cobra.Command{
		Use:   "addadmin",
		Short: "Create an admin, or reset an existing admin's password",
		Long: `Create a privileged account with the given email.
If the email already belongs to an admin, its password and super admin flag are replaced.
The password is prompted next.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			na.Password = pwd
			return cli.addAdmin(cmd, na)
		},
	}
	cmd.Flags().StringVar(&na.Email, "email", "", "the admin's email")
	cmd.Flags().StringVar(&na.Name, "name", "", "the admin's display name")
	cmd.Flags().BoolVar(&na.IsSuperAdmin, "super", false, "grant super admin rights")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// addAdmin updates or creates an account.Admin
func (cli *commandLine) addAdmin(cmd *cobra.Command, na account.NewAdmin) error {
	if err := na.Validate(cli.validate); err != nil {
		return err
	}
	adm, err := cli.accounts.SaveAdmin(cmd.Context(), na)
	if err != nil {
		return err
	}
	cmd.Printf("admin %s saved (super admin: %t)\n", adm.Email, adm.IsSuperAdmin)
	return nil
}
