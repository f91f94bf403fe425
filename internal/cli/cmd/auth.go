package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/quill/internal/cli/styles"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
)

type loginOptions struct {
	email, password, otp string
}

type resetOptions struct {
	email, otp, password, confirm string
}

func init() {
	var lo loginOptions
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email, password and a one-time code",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, e *env, _ []string) error {
			return runLogin(ctx, e, lo)
		}),
	}
	loginCmd.Flags().StringVar(&lo.email, "email", "", "Account email")
	loginCmd.Flags().StringVar(&lo.password, "password", "", "Account password (prompted when omitted)")
	loginCmd.Flags().StringVar(&lo.otp, "otp", "", "One-time code (prompted when omitted)")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and delete the token file",
		Args:  cobra.NoArgs,
		RunE:  run(func(ctx context.Context, e *env, _ []string) error { return runLogout(ctx, e) }),
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE:  run(func(ctx context.Context, e *env, _ []string) error { return runWhoami(ctx, e) }),
	}

	var ro resetOptions
	resetCmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset a forgotten password with a one-time code",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, e *env, _ []string) error {
			return runResetPassword(ctx, e, ro)
		}),
	}
	resetCmd.Flags().StringVar(&ro.email, "email", "", "Account email")
	resetCmd.Flags().StringVar(&ro.otp, "otp", "", "One-time code (prompted when omitted)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, resetCmd)
}

func runLogin(ctx context.Context, e *env, o loginOptions) error {
	if err := e.prompt.Ask(
		Question{Title: "Email", Value: &o.email},
		Question{Title: "Password", Secret: true, Value: &o.password},
	); err != nil {
		return err
	}

	challenge, err := e.client.Login(ctx, blogsdk.LoginRequest{Email: o.email, Password: o.password})
	if err != nil {
		return err
	}
	if !e.json {
		fmt.Fprintln(e.out, styles.Subtle.Render("A one-time code has been sent to "+o.email))
	}

	if err := e.prompt.Ask(Question{Title: "One-time code", Value: &o.otp}); err != nil {
		return err
	}
	if _, err := e.client.VerifyLoginOTP(ctx, challenge.UserID, o.otp); err != nil {
		return err
	}

	if e.json {
		return e.printJSON(map[string]bool{"logged_in": true})
	}
	e.ok("Logged in as %s", o.email)
	return nil
}

func runLogout(ctx context.Context, e *env) error {
	err := e.client.Logout(ctx)
	if err != nil {
		// The token file is gone either way; the server call is best effort.
		fmt.Fprintln(e.out, styles.Subtle.Render("server logout failed: "+describe(err)))
	}
	e.ok("Logged out")
	return nil
}

var errNotLoggedIn = errors.New(`not logged in, run "quillctl login"`)

func runWhoami(ctx context.Context, e *env) error {
	tokens, err := e.client.Tokens.Load(ctx)
	if err != nil {
		return err
	}
	if !tokens.HasAccess() {
		return errNotLoggedIn
	}

	profile, err := e.client.Profile(ctx)
	if err != nil {
		return err
	}

	if e.json {
		return e.printJSON(profile)
	}
	fmt.Fprintln(e.out, styles.Panel.Render(fmt.Sprintf("%s\n%s\n%s",
		styles.Title.Render(profile.FullName()),
		"@"+profile.Username,
		styles.Subtle.Render(profile.Email),
	)))
	return nil
}

func runResetPassword(ctx context.Context, e *env, o resetOptions) error {
	if err := e.prompt.Ask(Question{Title: "Email", Value: &o.email}); err != nil {
		return err
	}
	if err := e.client.RequestPasswordResetOTP(ctx, o.email); err != nil {
		return err
	}
	fmt.Fprintln(e.out, styles.Subtle.Render("If the address is registered, a code has been sent."))

	if err := e.prompt.Ask(Question{Title: "One-time code", Value: &o.otp}); err != nil {
		return err
	}
	if err := e.client.VerifyPasswordResetOTP(ctx, o.email, o.otp); err != nil {
		return err
	}

	if err := e.prompt.Ask(
		Question{Title: "New password", Secret: true, Value: &o.password},
		Question{Title: "Confirm password", Secret: true, Value: &o.confirm},
	); err != nil {
		return err
	}
	if err := e.client.ResetPassword(ctx, blogsdk.PasswordResetRequest{
		Email:           o.email,
		OTP:             o.otp,
		NewPassword:     o.password,
		ConfirmPassword: o.confirm,
	}); err != nil {
		return err
	}

	e.ok("Password updated, you can now log in")
	return nil
}
