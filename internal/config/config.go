// Package config holds pmerge's configuration: a viper instance fed from
// .projmerge/config.yaml (found by walking up from the working directory),
// the user config file and PM_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the per-repository configuration directory.
const DirName = ".projmerge"

var v *viper.Viper

// Initialize sets up the viper configuration singleton.
// Precedence: flags (applied by the caller) > env > project config > user config > defaults.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("PM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// User config first so project config can override it.
	if path := userConfigPath(); path != "" {
		if err := mergeFile(v, path); err != nil {
			return err
		}
	}
	if path := findProjectConfig(); path != "" {
		if err := mergeFile(v, path); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("debug-dir", filepath.Join(DirName, "merge-debug"))
	v.SetDefault("json.indent", "    ")
	v.SetDefault("merge.source-parameters", []string{})
	v.SetDefault("diff.format", "text")
	v.SetDefault("no-color", false)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
}

func mergeFile(v *viper.Viper, path string) error {
	f, err := os.Open(path) // #nosec G304 - config file discovered from known locations
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()
	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	v.SetConfigFile(path)
	return nil
}

// findProjectConfig walks up from the working directory looking for
// .projmerge/config.yaml.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, DirName, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func userConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "projmerge", "config.yaml")
}

// ResetForTesting drops the current configuration.
func ResetForTesting() {
	v = nil
}

// ConfigFileUsed returns the last config file merged, or "".
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetStringSlice retrieves a string slice configuration value
func GetStringSlice(key string) []string {
	if v == nil {
		return []string{}
	}
	return v.GetStringSlice(key)
}

// Set sets a configuration value
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns all configuration settings as a map
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// SourceParameters is the configured node type to source parameter table.
// Entries are written "NodeType.parameter"; viper folds map keys to lower
// case, and node types are case sensitive.
func SourceParameters() map[string][]string {
	out := make(map[string][]string)
	for _, entry := range GetStringSlice("merge.source-parameters") {
		i := strings.LastIndex(entry, ".")
		if i <= 0 || i == len(entry)-1 {
			continue
		}
		typ, param := entry[:i], entry[i+1:]
		out[typ] = append(out[typ], param)
	}
	return out
}

// Indent is the indentation merged documents are written with.
func Indent() string {
	if s := GetString("json.indent"); s != "" {
		return s
	}
	return "    "
}

// DebugDir is where failed merges leave their debug bundles.
func DebugDir() string {
	return GetString("debug-dir")
}
