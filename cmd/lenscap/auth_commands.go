package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lenscap/internal/validate"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in to the captioning backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := validate.Email(args[0])
			if err != nil {
				return err
			}
			pw, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}
			if err := validate.Password(pw); err != nil {
				return err
			}

			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			user, err := sess.guard.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"user": user})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted on stdin when omitted)")
	return cmd
}

func newSignupCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "signup <email>",
		Short: "Create a captioning backend account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := validate.Email(args[0])
			if err != nil {
				return err
			}
			pw, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}
			if err := validate.Password(pw); err != nil {
				return err
			}

			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			user, pending, err := sess.guard.Signup(cmd.Context(), email, pw)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"user": user, "pending_confirmation": pending})
			}
			out := cmd.OutOrStdout()
			if pending {
				fmt.Fprintf(out, "Account created for %s\n", user.Email)
				fmt.Fprintln(out, "Check your email to confirm the account, then run 'lenscap login'.")
				return nil
			}
			fmt.Fprintf(out, "Account created; logged in as %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted on stdin when omitted)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			if err := sess.guard.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			if err := resumeSession(cmd, sess); err != nil {
				return err
			}
			user, ok := sess.guard.CurrentUser()
			if !ok {
				return errNotLoggedIn
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"user": user})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Email: %s\n", user.Email)
			if user.Username != "" {
				fmt.Fprintf(out, "Username: %s\n", user.Username)
			}
			fmt.Fprintf(out, "ID: %s\n", user.ID)
			return nil
		},
	}
}
