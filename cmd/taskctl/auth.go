package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskboard/internal/auth"
)

func newLoginCmd(get func() *app) *cobra.Command {
	var creds auth.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := get().auth.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			if s.Subject != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", s.Subject)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRegisterCmd(get func() *app) *cobra.Command {
	var reg auth.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reg.ConfirmPassword == "" {
				reg.ConfirmPassword = reg.Password
			}
			result, err := get().auth.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			msg := result.Message
			if msg == "" {
				msg = "Account created, run `taskctl login` to sign in"
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&reg.Password, "password", "", "Account password (required)")
	cmd.Flags().StringVar(&reg.ConfirmPassword, "confirm-password", "", "Repeat the password (defaults to --password)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the locally stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := get().session.Get()
			if !ok {
				return fmt.Errorf("not logged in")
			}
			out := cmd.OutOrStdout()
			subject := s.Subject
			if subject == "" {
				subject = "(unknown)"
			}
			fmt.Fprintf(out, "Subject: %s\n", subject)
			if !s.ExpiresAt.IsZero() {
				state := "valid"
				if s.Expired(time.Now()) {
					state = "expired, refreshed on next request"
				}
				fmt.Fprintf(out, "Expires: %s (%s)\n", s.ExpiresAt.Local().Format(time.RFC1123), state)
			}
			return nil
		},
	}
}
