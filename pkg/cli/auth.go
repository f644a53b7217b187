package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/bidster/bidster/pkg/bidster"
)

var (
	loginUsername string
	loginPassword string

	registerUsername string
	registerEmail    string
	registerPassword string
	registerConfirm  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Sign in to Bidster. The token is stored in the config directory and
used by every other command until 'bidster logout'.

Without --username and --password an interactive form is shown.`,
	Args: cobra.NoArgs,
	RunE: withApp(runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		if err := a.svc.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a Bidster account",
	Args:  cobra.NoArgs,
	RunE:  withApp(runRegister),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		user, err := a.svc.Me(ctx)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emitJSON(user)
		}
		printUser(a, user)
		return nil
	}),
}

func printUser(a *app, u *bidster.User) {
	name := u.Username
	if u.DisplayName != "" && u.DisplayName != u.Username {
		name += " (" + u.DisplayName + ")"
	}
	fmt.Fprintf(a.out, "%s <%s>, user #%d\n", name, u.Email, u.ID)
}

// interactive reports whether stdin is a terminal a form can run on.
func interactive() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func runLogin(ctx context.Context, a *app, _ []string) error {
	if loginUsername == "" || loginPassword == "" {
		if !interactive() {
			return ErrMissingCredentials
		}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Username").
					Value(&loginUsername).
					Validate(required("username")),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&loginPassword).
					Validate(required("password")),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
	}

	user, err := a.svc.Login(ctx, bidster.Credentials{Username: loginUsername, Password: loginPassword})
	if err != nil {
		return err
	}
	if a.structured() {
		return a.emitJSON(user)
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", user.Username)
	return nil
}

func runRegister(ctx context.Context, a *app, _ []string) error {
	if registerUsername == "" && interactive() {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Username").
					Value(&registerUsername).
					Validate(required("username")),
				huh.NewInput().
					Title("Email").
					Placeholder("you@example.com").
					Value(&registerEmail).
					Validate(required("email")),
				huh.NewInput().
					Title("Password").
					Description("At least 8 characters").
					EchoMode(huh.EchoModePassword).
					Value(&registerPassword),
				huh.NewInput().
					Title("Confirm password").
					EchoMode(huh.EchoModePassword).
					Value(&registerConfirm),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
	}
	if registerConfirm == "" {
		registerConfirm = registerPassword
	}

	reg := bidster.Registration{
		Username:        registerUsername,
		Email:           registerEmail,
		Password:        registerPassword,
		ConfirmPassword: registerConfirm,
	}
	if err := a.svc.Register(ctx, reg); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s. Run 'bidster login' to sign in.\n", reg.Username)
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")

	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username (at most 20 characters)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password (at least 8 characters)")
	registerCmd.Flags().StringVar(&registerConfirm, "confirm-password", "", "Password confirmation (defaults to --password)")

	addJSONPathFlag(whoamiCmd)
}
