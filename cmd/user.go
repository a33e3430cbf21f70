package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusflow/internal/auth"
)

var (
	userEmail     string
	userPassword  string
	userFirstName string
	userLastName  string
)

// userCmd manages accounts for the web server.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts for the web server",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	Long: `Create an account that can sign in to the web server. Without
--password the password is read from the terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := userPassword
		if password == "" {
			var err error
			password, err = readPassword(cmd.ErrOrStderr(), cmd.InOrStdin())
			if err != nil {
				return err
			}
		}

		user, err := app.auth.Register(cmd.Context(), auth.RegisterRequest{
			Email:     userEmail,
			Password:  password,
			FirstName: userFirstName,
			LastName:  userLastName,
		})
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"user": user})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "👤 Account created: %s (ID: %s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "Email address (required)")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Password (prompted when omitted)")
	userAddCmd.Flags().StringVar(&userFirstName, "first", "", "First name")
	userAddCmd.Flags().StringVar(&userLastName, "last", "", "Last name")
	_ = userAddCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userAddCmd)
}

// readPassword prompts without echo on a terminal, or reads one line from
// in otherwise.
func readPassword(prompt io.Writer, in io.Reader) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
