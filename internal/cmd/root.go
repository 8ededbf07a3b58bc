package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/webclaw-cli/internal/config"
	"github.com/salmonumbrella/webclaw-cli/internal/gateway"
	"github.com/salmonumbrella/webclaw-cli/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// annotationGateway marks commands that need a gateway client.
const annotationGateway = "webclaw/gateway"

var gatewayAnnotation = map[string]string{annotationGateway: "true"}

// Global flags
var (
	sessionKey      string
	storePath       string
	gatewayURL      string
	gatewayToken    string
	gatewayPassword string
	outputFmt       string
	outputType      output.Format
	debug           bool
	configFile      string
	queryExpr       string
	queryFile       string
	errorFmt        string
	quietFlag       bool
	yesFlag         bool
	resultLimit     int
	resultSort      string
	resultDesc      bool
)

// client is the shared gateway client, set only for gateway commands
var client gateway.GatewayAPI

// logger receives diagnostics; it discards unless --debug is set
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var rootCmd = &cobra.Command{
	Use:   "webclaw",
	Short: "CLI for WebClaw table blocks and the WebClaw gateway",
	Long: `webclaw is a command-line companion to the WebClaw chat UI.

It keeps per-session workbenches of table blocks (create, import CSV,
edit, export as CSV or Markdown) and talks to the gateway to list and
search sessions, export conversations and manage cron jobs.

Environment Variables:
  WEBCLAW_GATEWAY_URL       Gateway URL (http(s):// or ws(s)://)
  WEBCLAW_GATEWAY_TOKEN     Gateway token
  WEBCLAW_GATEWAY_PASSWORD  Gateway password
  WEBCLAW_SESSION           Default session key
  WEBCLAW_STORE             Workbench database path (:memory: for none)`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true

		skipConfigLoad := cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config")
		var cfg *config.Config
		if !skipConfigLoad {
			loadedCfg, err := loadConfigFromFlag()
			if err != nil {
				return formatConfigLoadError(err)
			}
			cfg = loadedCfg
		}

		// Output format selection: --output > config > default
		formatStr := outputFmt
		if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") && cfg != nil && strings.TrimSpace(cfg.OutputFormat) != "" {
			formatStr = strings.TrimSpace(cfg.OutputFormat)
		}
		if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") && !isTerminal(cmd.OutOrStdout()) {
			formatStr = "json"
		}
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		// jq query
		if queryExpr != "" && queryFile != "" {
			return fmt.Errorf("use only one of --query or --query-file")
		}
		if queryFile != "" {
			loaded, err := readInputSource(queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queryExpr = loaded
		}

		// Default quiet mode for non-interactive structured output
		if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
			quietFlag = true
		}

		if debug {
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		}

		ctx := cmd.Context()
		ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctx = output.WithFormat(ctx, outputType)
		ctx = output.WithQuery(ctx, queryExpr)
		ctx = output.WithYes(ctx, yesFlag)
		ctx = output.WithLimit(ctx, resultLimit)
		ctx = output.WithSort(ctx, resultSort, resultDesc)
		ctx = output.WithQuiet(ctx, quietFlag)
		ctx = WithErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)
		cmd.Root().SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		if effectiveErrorFormat(ctx) != "text" {
			cmd.SilenceUsage = true
		}

		sessionKey = resolveSession(cmd, cfg)
		storePath = resolveStorePath(cmd, cfg)

		if !requiresGateway(cmd) {
			return nil
		}

		url, token, password := resolveCredentials(cmd, cfg)
		if token == "" && password == "" {
			return fmt.Errorf("gateway token or password required. Set WEBCLAW_GATEWAY_TOKEN or use --token.\nRun 'webclaw auth login' to configure authentication.")
		}

		client, err = newClientFromCredsFunc(url, token, password, gateway.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to create gateway client: %w", err)
		}
		logger.Debug("gateway client ready", "command", cmd.CommandPath(), "url", url)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeWorkbench()
	},
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if closeErr := closeWorkbench(); err == nil {
		err = closeErr
	}
	if err != nil {
		printCommandError(rootCmd.Context(), err)
		return err
	}
	return nil
}

// GetClient returns the initialized gateway client
func GetClient() gateway.GatewayAPI {
	return client
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatText
	}
	return parsed
}

// requiresGateway reports whether cmd or one of its parents is annotated as
// a gateway command.
func requiresGateway(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationGateway] == "true" {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("webclaw version %s (commit: %s, built: %s)\n", version, commit, date))

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&sessionKey, "session", "s", "", "Session key (env: WEBCLAW_SESSION, default: new)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Workbench database path, or :memory: (env: WEBCLAW_STORE)")
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway-url", "", "Gateway URL (env: WEBCLAW_GATEWAY_URL)")
	rootCmd.PersistentFlags().StringVar(&gatewayToken, "token", "", "Gateway token (env: WEBCLAW_GATEWAY_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&gatewayPassword, "password", "", "Gateway password (env: WEBCLAW_GATEWAY_PASSWORD)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format (text|json|ndjson|table|yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "text", "Alias for --output")
	rootCmd.PersistentFlags().StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmation prompts (for automation)")
	rootCmd.PersistentFlags().BoolVar(&yesFlag, "no-input", false, "Alias for --yes (non-interactive)")
	rootCmd.PersistentFlags().IntVar(&resultLimit, "result-limit", 0, "Limit number of results in output (0 = unlimited)")
	rootCmd.PersistentFlags().StringVar(&resultSort, "result-sort-by", "", "Sort output results by field")
	rootCmd.PersistentFlags().BoolVar(&resultDesc, "result-desc", false, "Sort output results in descending order")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/webclaw/config.yaml)")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
