package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jakenelson/nwchemctl/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage nwchemctl configuration",
	Long: `Manage nwchemctl configuration settings.

Commands:
  list    List all configuration settings
  get     Get a configuration value
  set     Set a configuration value
  path    Show configuration file path
  init    Create default configuration file

Examples:
  nwchemctl config list
  nwchemctl config get image.tag
  nwchemctl config set image.tag 7.2.2
  nwchemctl config set runtime.backend api`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		printSettingsFlat("", viper.AllSettings())
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !viper.IsSet(key) {
			return fmt.Errorf("key not found: %s", key)
		}
		value := viper.Get(key)
		if m, ok := value.(map[string]interface{}); ok {
			printSettingsFlat(key, m)
		} else {
			fmt.Println(value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := validateConfigKey(key, value); err != nil {
			return err
		}

		configPath := getConfigPath()
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		// Parse value (handle booleans)
		var parsedValue interface{} = value
		if value == "true" {
			parsedValue = true
		} else if value == "false" {
			parsedValue = false
		}

		viper.Set(key, parsedValue)

		if err := viper.WriteConfigAs(configPath); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Println(used)
		} else {
			fmt.Println(getConfigPath())
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := getConfigPath()

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists at %s", configPath)
		}

		content, err := config.Render(config.Default())
		if err != nil {
			return fmt.Errorf("failed to render default config: %w", err)
		}

		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Printf("Created config file at %s\n", configPath)
		return nil
	},
}

// printSettingsFlat prints settings in dot notation
func printSettingsFlat(prefix string, settings map[string]interface{}) {
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]interface{}); ok {
			printSettingsFlat(fullKey, nested)
		} else {
			fmt.Printf("%s: %v\n", fullKey, value)
		}
	}
}

// getConfigPath returns the default config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "nwchemctl", "config.yaml")
}

// validateConfigKey validates key/value pairs for known configuration keys
func validateConfigKey(key, value string) error {
	validations := map[string][]string{
		"runtime.backend":   {config.BackendCLI, config.BackendAPI},
		"container.network": {config.NetworkBridge, config.NetworkNone, config.NetworkHost},
		"image.skip_pull":   {"true", "false"},
	}

	if allowed, exists := validations[key]; exists {
		for _, v := range allowed {
			if value == v {
				return nil
			}
		}
		return fmt.Errorf("invalid value for %s: %s (allowed: %s)", key, value, strings.Join(allowed, ", "))
	}

	if key == "convert.target_extension" && strings.ContainsAny(value, `/\`) {
		return fmt.Errorf("invalid value for %s: %s (must not contain path separators)", key, value)
	}
	return nil // Unknown keys pass through
}
