package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/webclaw-cli/internal/gateway"
	"github.com/salmonumbrella/webclaw-cli/internal/secrets"
)

const (
	// defaultProfile is the profile name used for credentials
	defaultProfile = "default"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage gateway credentials",
	Long: `Manage the credentials used to reach the WebClaw gateway.

Credentials are stored securely in your system keychain (macOS Keychain,
Windows Credential Manager, or encrypted file on Linux). A gateway accepts
either a token or a password.

Examples:
  webclaw auth login --token YOUR_GATEWAY_TOKEN
  webclaw auth login --password-auth --gateway-url ws://10.0.0.5:18789
  webclaw auth status --verify
  webclaw auth logout`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store gateway credentials",
	Long: `Store gateway credentials in the system keychain.

The token comes from --token, WEBCLAW_GATEWAY_TOKEN, or a prompt. With
--password-auth the gateway password is used instead (--password,
WEBCLAW_GATEWAY_PASSWORD, or a prompt). The gateway URL comes from
--gateway-url or WEBCLAW_GATEWAY_URL and defaults to the local gateway.

The credentials are checked against the gateway before they are stored.
Rejected credentials are not saved; an unreachable gateway only warns.

Examples:
  webclaw auth login
  webclaw auth login --token TOKEN --gateway-url wss://gw.example.com
  webclaw auth login --password-auth`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored credentials",
	Long: `Clear stored gateway credentials from the system keychain.

Examples:
  webclaw auth logout`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current authentication status",
	Long: `Display the stored credentials and gateway URL.

Can optionally verify the credentials against the gateway.

Examples:
  webclaw auth status
  webclaw auth status --verify  # Also verify credentials with the gateway`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var (
	loginPasswordAuth bool
	verifyAuth        bool
)

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(authCmd)

	loginCmd.Flags().BoolVar(&loginPasswordAuth, "password-auth", false, "Authenticate with the gateway password instead of a token")

	statusCmd.Flags().BoolVar(&verifyAuth, "verify", false, "Verify credentials with the gateway")
}

func runLogin(cmd *cobra.Command, args []string) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	ctx := cmd.Context()
	structured := structuredOutputRequested()

	url := gateway.DefaultBaseURL
	if flagChanged(cmd, "gateway-url") {
		url = firstNonEmpty(gatewayURL, url)
	} else {
		url = firstNonEmpty(envGet("WEBCLAW_GATEWAY_URL"), url)
	}

	kind := secrets.KindToken
	var secret string
	if loginPasswordAuth {
		kind = secrets.KindPassword
		if flagChanged(cmd, "password") {
			secret = strings.TrimSpace(gatewayPassword)
		}
		secret = firstNonEmpty(secret, envGet("WEBCLAW_GATEWAY_PASSWORD"))
		if secret == "" {
			if secret, err = promptSecret(ctx, "Enter gateway password: "); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
	} else {
		if flagChanged(cmd, "token") {
			secret = strings.TrimSpace(gatewayToken)
		}
		secret = firstNonEmpty(secret, envGet("WEBCLAW_GATEWAY_TOKEN"))
		if secret == "" {
			if secret, err = promptSecret(ctx, "Enter gateway token: "); err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
		}
	}
	if secret == "" {
		return fmt.Errorf("gateway %s is required", kind)
	}

	if !structured {
		printStatus("Verifying credentials...\n")
	}
	verified, err := verifyCredential(ctx, url, secret, kind)
	if err != nil {
		var authErr gateway.AuthenticationError
		if errors.As(err, &authErr) {
			return fmt.Errorf("authentication failed: invalid gateway %s", kind)
		}
		if !structured {
			fmt.Fprintf(stderr(), "Warning: Could not verify credentials: %v\n", err)
			fmt.Fprintln(stderr(), "Proceeding with credential storage...")
		}
	} else if !structured {
		printStatus("Credentials verified successfully!\n")
	}

	if err := ensureKeychainAccess(); err != nil {
		return err
	}

	cred := secrets.Credential{
		Profile:    defaultProfile,
		Secret:     secret,
		Kind:       kind,
		GatewayURL: url,
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.SetCredential(defaultProfile, cred); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if err := store.SetDefaultAccount(defaultProfile); err != nil {
		return fmt.Errorf("failed to set default account: %w", err)
	}

	if structured {
		return printStructured(map[string]interface{}{
			"status":      "authenticated",
			"gateway_url": url,
			"kind":        kind,
			"verified":    verified,
		})
	}

	fmt.Fprintf(stdout(), "\nAuthenticated successfully!\n")
	fmt.Fprintf(stdout(), "Gateway: %s\n", url)
	fmt.Fprintf(stdout(), "Type: %s\n", kind)
	fmt.Fprintln(stdout(), "\nYou can now use webclaw commands without specifying --token or --password.")
	return nil
}

// verifyCredential pings the gateway with the given secret.
func verifyCredential(ctx context.Context, url, secret, kind string) (bool, error) {
	token, password := secret, ""
	if kind == secrets.KindPassword {
		token, password = "", secret
	}
	client, err := newClientFromCredsFunc(url, token, password, gateway.WithLogger(logger))
	if err != nil {
		return false, err
	}
	if _, err := client.Ping(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	if err := store.DeleteCredential(defaultProfile); err != nil && !errors.Is(err, secrets.ErrNotFound) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{
			"status": "logged_out",
		})
	}

	fmt.Fprintln(stdout(), "Logged out successfully.")
	fmt.Fprintln(stdout(), "Credentials have been removed from the system keychain.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	structured := structuredOutputRequested()

	cred, err := store.GetCredential(defaultProfile)
	if err != nil {
		if structured {
			return printStructured(map[string]interface{}{
				"authenticated": false,
			})
		}
		fmt.Fprintln(stdout(), "Status: Not authenticated")
		fmt.Fprintln(stdout(), "\nRun 'webclaw auth login' to authenticate.")
		return nil
	}

	url := firstNonEmpty(cred.GatewayURL, gateway.DefaultBaseURL)
	kind := firstNonEmpty(cred.Kind, secrets.KindToken)

	var verified *bool
	var verifyError string
	if verifyAuth {
		ok, err := verifyCredential(cmd.Context(), url, cred.Secret, kind)
		verified = &ok
		if err != nil {
			var authErr gateway.AuthenticationError
			if errors.As(err, &authErr) {
				verifyError = fmt.Sprintf("invalid or expired %s", kind)
			} else {
				verifyError = err.Error()
			}
		}
	}

	if structured {
		result := map[string]interface{}{
			"authenticated": true,
			"profile":       cred.Profile,
			"gateway_url":   url,
			"kind":          kind,
		}
		if !cred.CreatedAt.IsZero() {
			result["authenticated_at"] = cred.CreatedAt.Format(time.RFC3339)
		}
		if cred.Secret != "" {
			result["secret_preview"] = maskToken(cred.Secret)
		}
		if verifyAuth {
			result["verified"] = verified
			if verifyError != "" {
				result["verify_error"] = verifyError
			}
		}
		return printStructured(result)
	}

	out := stdout()
	fmt.Fprintln(out, "Status: Authenticated")
	fmt.Fprintf(out, "Profile: %s\n", cred.Profile)
	if !cred.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Authenticated at: %s\n", cred.CreatedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Gateway: %s\n", url)
	fmt.Fprintf(out, "Type: %s\n", kind)
	if cred.Secret != "" {
		fmt.Fprintf(out, "Secret: %s\n", maskToken(cred.Secret))
	}
	if verifyAuth {
		if verifyError != "" {
			fmt.Fprintf(out, "Verification: FAILED - %s\n", verifyError)
		} else {
			fmt.Fprintln(out, "Verification: OK - Credentials are valid")
		}
	}
	return nil
}

// promptString prompts for a string input
func promptString(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)
	reader := bufio.NewReader(stdinFromContext(ctx))
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// promptSecret prompts for a secret input (no echo)
func promptSecret(ctx context.Context, prompt string) (string, error) {
	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(stderrFromContext(ctx), prompt)
		password, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(stderrFromContext(ctx))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(password)), nil
	}

	// Fall back to regular input for non-terminal (e.g., piped input)
	return promptString(ctx, prompt)
}

// maskToken masks a token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
