package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/webclaw-cli/internal/config"
	"github.com/salmonumbrella/webclaw-cli/internal/output"
	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/webclaw/config.yaml.

You can view, set, or unset config keys such as gateway_url, token,
password, session, store_path, keyring_backend, and output_format.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		if structuredOutputRequested() {
			return printStructured(configOutput(cfg))
		}

		out := stdout()
		fmt.Fprintln(out, "Config:")
		fmt.Fprintf(out, "  gateway_url: %s\n", cfg.GatewayURL)
		fmt.Fprintf(out, "  token: %s\n", maskSecret(cfg.Token))
		fmt.Fprintf(out, "  password: %s\n", maskSecret(cfg.Password))
		fmt.Fprintf(out, "  session: %s\n", cfg.Session)
		fmt.Fprintf(out, "  store_path: %s\n", cfg.StorePath)
		fmt.Fprintf(out, "  keyring_backend: %s\n", cfg.KeyringBackend)
		fmt.Fprintf(out, "  output_format: %s\n", cfg.OutputFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := supportedConfigKeys()
		sort.Strings(keys)

		if structuredOutputRequested() {
			return printStructured(keys)
		}

		fmt.Fprintln(stdout(), "Supported keys:")
		for _, key := range keys {
			fmt.Fprintf(stdout(), "  %s\n", key)
		}
		return nil
	},
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func supportedConfigKeys() []string {
	return []string{
		"gateway_url",
		"token",
		"password",
		"session",
		"store_path",
		"keyring_backend",
		"output_format",
	}
}

// secretConfigKeys are masked whenever they are echoed back.
var secretConfigKeys = map[string]bool{"token": true, "password": true}

func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "gateway_url":
		cfg.GatewayURL = value
	case "token":
		cfg.Token = value
	case "password":
		cfg.Password = value
	case "session":
		cfg.Session = workbench.NormalizeSessionKey(value)
	case "store_path":
		cfg.StorePath = value
	case "keyring_backend":
		cfg.KeyringBackend = value
	case "output_format":
		if _, err := output.ParseFormat(value); err != nil {
			return err
		}
		cfg.OutputFormat = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func clearConfigValue(cfg *config.Config, key string) error {
	switch key {
	case "gateway_url":
		cfg.GatewayURL = ""
	case "token":
		cfg.Token = ""
	case "password":
		cfg.Password = ""
	case "session":
		cfg.Session = ""
	case "store_path":
		cfg.StorePath = ""
	case "keyring_backend":
		cfg.KeyringBackend = ""
	case "output_format":
		cfg.OutputFormat = ""
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		if secretConfigKeys[key] {
			value = maskSecret(value)
		}
		return printStructured(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}

	printStatus("Updated %s\n", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := clearConfigValue(cfg, key); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(map[string]string{
			"status": "unset",
			"key":    key,
		})
	}

	printStatus("Unset %s\n", key)
	return nil
}

func configOutput(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"gateway_url":     cfg.GatewayURL,
		"token":           maskSecret(cfg.Token),
		"token_set":       cfg.Token != "",
		"password":        maskSecret(cfg.Password),
		"password_set":    cfg.Password != "",
		"session":         cfg.Session,
		"store_path":      cfg.StorePath,
		"keyring_backend": cfg.KeyringBackend,
		"output_format":   cfg.OutputFormat,
	}
}

// maskSecret masks a non-empty secret and leaves an empty one empty.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return maskToken(secret)
}
