package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) credentialFlags(cmd *cobra.Command) (email, password *string) {
	email = cmd.Flags().String("email", "", "admin email")
	password = cmd.Flags().String("password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return email, password
}

func (a *app) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an admin account and print its token",
		Args:  cobra.NoArgs,
	}
	email, password := a.credentialFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		resp, err := a.client().Register(commandContext(cmd), *email, *password)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]string{"token": resp.Token})
	}
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a token for LISTCTL_TOKEN",
		Args:  cobra.NoArgs,
	}
	email, password := a.credentialFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		resp, err := a.client().Login(commandContext(cmd), *email, *password)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]string{"token": resp.Token})
	}
	return cmd
}
