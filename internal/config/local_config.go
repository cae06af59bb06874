package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml read directly from a file rather
// than through the viper singleton, for callers that need another
// repository's settings (setup-git reads the target repository's).
type LocalConfig struct {
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	DebugDir string `yaml:"debug-dir"`
	JSON     struct {
		Indent string `yaml:"indent"`
	} `yaml:"json"`
	Merge struct {
		SourceParameters []string `yaml:"source-parameters"`
	} `yaml:"merge"`
	Attributes []string `yaml:"attributes"`
}

// LoadLocalConfig reads and parses config.yaml from the given .projmerge
// directory.
//
// Returns an empty LocalConfig (not nil) if the file doesn't exist or can't be parsed.
func LoadLocalConfig(dir string) *LocalConfig {
	configPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(configPath) // #nosec G304 - config file path from dir
	if err != nil {
		return &LocalConfig{}
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}

	return &cfg
}

// MergePatterns returns the .gitattributes patterns to register the merge
// driver for, from the repository's config.yaml. Defaults to project.json.
func MergePatterns(dir string) []string {
	if patterns := LoadLocalConfig(dir).Attributes; len(patterns) > 0 {
		return patterns
	}
	return []string{"project.json"}
}
