package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var adminPassword, adminName string

var createAdminCmd = &cobra.Command{
	Use:     "create-admin [email]",
	Short:   "Create an admin account, or promote an existing one.",
	Example: "agrorentctl create-admin ops@agrorent.in --password s3cret --name \"Ops Desk\"",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		profile, err := e.provider.ProvisionAdmin(cmd.Context(), args[0], adminPassword, adminName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is an admin (id %s)\n", args[0], profile.ID)
		return nil
	},
}

var confirmUserCmd = &cobra.Command{
	Use:   "confirm-user [email]",
	Short: "Mark a farmer's email as confirmed so they can log in.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.provider.ConfirmEmail(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s confirmed\n", args[0])
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password for a new account")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "full name shown on the dashboard")
}
