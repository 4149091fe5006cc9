package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/ironpulse/internal/auth"
	"github.com/claude/ironpulse/internal/models"
	"github.com/spf13/cobra"
)

var (
	loginEmail string
	loginPhone string
	loginCode  string
)

// loginCmd groups the sign-in methods
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to IronPulse",
	Long: `Sign in and persist the session in the configured store.

Available subcommands:
  google - Sign in with a Google account email
  phone  - Request a one-time code for a phone number
  verify - Complete phone sign-in with the code`,
}

var loginGoogleCmd = &cobra.Command{
	Use:   "google",
	Short: "Sign in with a Google account email",
	RunE:  runLoginGoogle,
}

var loginPhoneCmd = &cobra.Command{
	Use:   "phone",
	Short: "Request a one-time code for a phone number",
	Long: `Request a one-time code for a phone number.

Codes are written to the log (stderr) rather than sent by SMS. Complete
sign-in with 'login verify'.`,
	RunE: runLoginPhone,
}

var loginVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Complete phone sign-in with the one-time code",
	RunE:  runLoginVerify,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	loginGoogleCmd.Flags().StringVar(&loginEmail, "email", "", "Google account email")
	loginGoogleCmd.MarkFlagRequired("email")
	loginPhoneCmd.Flags().StringVar(&loginPhone, "phone", "", "phone number")
	loginPhoneCmd.MarkFlagRequired("phone")
	loginVerifyCmd.Flags().StringVar(&loginPhone, "phone", "", "phone number")
	loginVerifyCmd.Flags().StringVar(&loginCode, "code", "", "one-time code")
	loginVerifyCmd.MarkFlagRequired("phone")
	loginVerifyCmd.MarkFlagRequired("code")

	loginCmd.AddCommand(loginGoogleCmd)
	loginCmd.AddCommand(loginPhoneCmd)
	loginCmd.AddCommand(loginVerifyCmd)
}

func runLoginGoogle(cmd *cobra.Command, args []string) error {
	u, err := auth.GoogleUser(auth.GoogleIdentity{Email: loginEmail}, time.Now())
	if err != nil {
		return err
	}
	return completeLogin(cmd, u)
}

func runLoginPhone(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.otp.Request(cmd.Context(), loginPhone); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Code issued. Run 'ironpulse-cli login verify --phone ... --code ...' to finish.")
	return nil
}

func runLoginVerify(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	u, err := a.otp.Verify(cmd.Context(), loginPhone, loginCode)
	a.Close()
	if err != nil {
		return err
	}
	return completeLogin(cmd, u)
}

// completeLogin persists u as the session user and prints a bearer token when
// a signing secret is configured.
func completeLogin(cmd *cobra.Command, u models.User) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.sessions.Login(cmd.Context(), u); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Signed in as %s (%s)\n", u.EmailID, u.ID)
	if a.tokens != nil {
		token, err := a.tokens.Issue(u)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Token: %s\n", token)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.sessions.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	u, ok := a.sessions.Current()
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(u)
}
