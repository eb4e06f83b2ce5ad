package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignupCommand(app *studio) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new writer account",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.remote.Signup(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := app.sessions.Save(session); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed up as %s\n", session.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.MarkFlagRequired("email")    //nolint:errcheck
	cmd.MarkFlagRequired("password") //nolint:errcheck
	return cmd
}

func newLoginCommand(app *studio) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.remote.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := app.sessions.Save(session); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", session.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.MarkFlagRequired("email")    //nolint:errcheck
	cmd.MarkFlagRequired("password") //nolint:errcheck
	return cmd
}

func newLogoutCommand(app *studio) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.sessions.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCommand(app *studio) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.session()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", session.Email, session.ID)
			return nil
		},
	}
}
