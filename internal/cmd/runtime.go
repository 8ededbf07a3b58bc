package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/webclaw-cli/internal/config"
	"github.com/salmonumbrella/webclaw-cli/internal/secrets"
	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

// firstNonEmpty returns the first value that is not blank after trimming.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// resolveSession picks the session key: --session > env > config > "new".
func resolveSession(cmd *cobra.Command, cfg *config.Config) string {
	flagValue := ""
	if flagChanged(cmd, "session") {
		flagValue = sessionKey
	}
	cfgValue := ""
	if cfg != nil {
		cfgValue = cfg.Session
	}
	return workbench.NormalizeSessionKey(firstNonEmpty(flagValue, envGet("WEBCLAW_SESSION"), cfgValue))
}

// resolveStorePath picks the workbench database: --store > env > config >
// ~/.config/webclaw/workbench.db. An empty result means the default could
// not be determined.
func resolveStorePath(cmd *cobra.Command, cfg *config.Config) string {
	flagValue := ""
	if flagChanged(cmd, "store") {
		flagValue = storePath
	}
	cfgValue := ""
	if cfg != nil {
		cfgValue = cfg.StorePath
	}
	if path := firstNonEmpty(flagValue, envGet("WEBCLAW_STORE"), cfgValue); path != "" {
		return path
	}
	path, err := config.DefaultStorePath()
	if err != nil {
		return ""
	}
	return path
}

// resolveCredentials resolves url/token/password with precedence:
// flags > env > keyring > config.
func resolveCredentials(cmd *cobra.Command, cfg *config.Config) (string, string, string) {
	url, token, password := "", "", ""

	// Flags (only if explicitly set)
	if flagChanged(cmd, "gateway-url") {
		url = strings.TrimSpace(gatewayURL)
	}
	if flagChanged(cmd, "token") {
		token = strings.TrimSpace(gatewayToken)
	}
	if flagChanged(cmd, "password") {
		password = strings.TrimSpace(gatewayPassword)
	}

	// Environment
	url = firstNonEmpty(url, envGet("WEBCLAW_GATEWAY_URL"))
	token = firstNonEmpty(token, envGet("WEBCLAW_GATEWAY_TOKEN"))
	password = firstNonEmpty(password, envGet("WEBCLAW_GATEWAY_PASSWORD"))

	// Keyring (only if still missing)
	if url == "" || (token == "" && password == "") {
		if store, err := openSecretsStore(); err == nil {
			if cred, err := store.GetCredential(defaultProfile); err == nil {
				if token == "" && password == "" {
					if cred.Kind == secrets.KindPassword {
						password = cred.Secret
					} else {
						token = cred.Secret
					}
				}
				url = firstNonEmpty(url, cred.GatewayURL)
			}
		} else {
			logger.Debug("keyring unavailable", "error", err)
		}
	}

	// Config fallback
	if cfg != nil {
		url = firstNonEmpty(url, cfg.GatewayURL)
		if token == "" && password == "" {
			token = strings.TrimSpace(cfg.Token)
			password = strings.TrimSpace(cfg.Password)
		}
	}

	return url, token, password
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}
