// Package config loads the translation-helps configuration file.
//
// Configuration is loaded from a single YAML file specified by:
//   - HELPS_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There is no automatic discovery. Paths in the file may use ${VAR} and
// ${VAR:-default}; ${HELPS_ROOT} refers to paths.root.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/JuniperHelps/internal/validation"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "HELPS_CONFIG"

// Role says whether a resource holds original-language or translated text.
type Role string

const (
	// RoleOriginal is an original-language edition (UGNT, UHB).
	RoleOriginal Role = "original"
	// RoleTarget is an aligned translation (ULT, UST).
	RoleTarget Role = "target"
)

// Testament selects the books an original-language resource covers.
type Testament string

const (
	OldTestament Testament = "ot"
	NewTestament Testament = "nt"
)

// Config is the translation-helps configuration.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Resources lists the scripture resources that can be loaded.
	Resources []ResourceConfig `yaml:"resources"`

	// Cache sizes the in-memory caches.
	Cache CacheConfig `yaml:"cache"`

	// Matcher tunes quote matching.
	Matcher MatcherConfig `yaml:"matcher"`

	// Bridge configures the WebSocket bridge.
	Bridge BridgeConfig `yaml:"bridge"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for content.
	Root string `yaml:"root"`

	// Store is the SQLite content store written by `helps import`.
	Store string `yaml:"store"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// ResourceConfig describes one scripture resource.
type ResourceConfig struct {
	// Key identifies the resource (e.g. "el-x-koine/ugnt").
	Key string `yaml:"key"`

	// Role is original or target.
	Role Role `yaml:"role"`

	// Testament limits an original resource to "ot" or "nt" books.
	Testament Testament `yaml:"testament,omitempty"`

	// Path is a directory of USFM/OSIS/JSON book files. Empty means the
	// resource is read from the content store.
	Path string `yaml:"path,omitempty"`

	// Language is the BCP-47 language tag.
	Language string `yaml:"language,omitempty"`

	// Direction is "ltr" or "rtl"; empty means detect from content.
	Direction string `yaml:"direction,omitempty"`
}

// CacheConfig sizes the in-memory caches.
type CacheConfig struct {
	// Books is the number of converted books kept in memory.
	Books int `yaml:"books"`

	// Titles is the number of row display titles kept in memory.
	Titles int `yaml:"titles"`
}

// MatcherConfig tunes quote matching.
type MatcherConfig struct {
	// ReorderWindow bounds how many words a flexible right-to-left match
	// may span. Zero means the whole verse.
	ReorderWindow int `yaml:"reorder_window"`
}

// BridgeConfig configures the WebSocket bridge.
type BridgeConfig struct {
	// Listen is the address the bridge listens on.
	Listen string `yaml:"listen"`

	// AllowedOrigins lists the browser origins allowed to connect. Empty
	// allows only same-host origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, ".cache", "juniper-helps")

	return &Config{
		Paths: PathsConfig{
			Root:  root,
			Store: filepath.Join(root, "content.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Books:  16,
			Titles: 1024,
		},
		Bridge: BridgeConfig{
			Listen: "127.0.0.1:8765",
		},
	}
}

// Load loads configuration from the HELPS_CONFIG environment variable.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your helps.yaml config file, or use --config flag", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["HELPS_ROOT"] = c.Paths.Root

	c.Paths.Store = expandVars(c.Paths.Store, vars)
	for i := range c.Resources {
		c.Resources[i].Path = expandVars(c.Resources[i].Path, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	seen := make(map[string]bool)
	for i, r := range c.Resources {
		switch {
		case r.Key == "":
			errs = append(errs, fmt.Errorf("resources[%d].key is required", i))
		case seen[r.Key]:
			errs = append(errs, fmt.Errorf("resources[%d]: duplicate key %q", i, r.Key))
		default:
			if err := validation.ResourceKey(r.Key); err != nil {
				errs = append(errs, fmt.Errorf("resources[%d].key: %w", i, err))
			}
		}
		seen[r.Key] = true

		if r.Role != RoleOriginal && r.Role != RoleTarget {
			errs = append(errs, fmt.Errorf("resources[%d].role must be original or target, got %q", i, r.Role))
		}
		if r.Testament != "" && r.Testament != OldTestament && r.Testament != NewTestament {
			errs = append(errs, fmt.Errorf("resources[%d].testament must be ot or nt, got %q", i, r.Testament))
		}
		if r.Direction != "" && r.Direction != "ltr" && r.Direction != "rtl" {
			errs = append(errs, fmt.Errorf("resources[%d].direction must be ltr or rtl, got %q", i, r.Direction))
		}
	}

	if c.Cache.Books < 0 || c.Cache.Titles < 0 {
		errs = append(errs, fmt.Errorf("cache sizes must not be negative"))
	}
	if c.Matcher.ReorderWindow < 0 {
		errs = append(errs, fmt.Errorf("matcher.reorder_window must not be negative"))
	}

	return errors.Join(errs...)
}

// Resource returns the resource with the given key.
func (c *Config) Resource(key string) (ResourceConfig, bool) {
	for _, r := range c.Resources {
		if r.Key == key {
			return r, true
		}
	}
	return ResourceConfig{}, false
}

// OriginalFor returns the original-language resource covering book. A
// resource without a testament covers every book.
func (c *Config) OriginalFor(book string) (ResourceConfig, bool) {
	want := TestamentOf(book)
	var fallback *ResourceConfig
	for i, r := range c.Resources {
		if r.Role != RoleOriginal {
			continue
		}
		if r.Testament == want {
			return r, true
		}
		if r.Testament == "" && fallback == nil {
			fallback = &c.Resources[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ResourceConfig{}, false
}

// ntBooks lists the New Testament book codes.
var ntBooks = map[string]bool{
	"MAT": true, "MRK": true, "LUK": true, "JHN": true, "ACT": true, "ROM": true,
	"1CO": true, "2CO": true, "GAL": true, "EPH": true, "PHP": true, "COL": true,
	"1TH": true, "2TH": true, "1TI": true, "2TI": true, "TIT": true, "PHM": true,
	"HEB": true, "JAS": true, "1PE": true, "2PE": true, "1JN": true, "2JN": true,
	"3JN": true, "JUD": true, "REV": true,
}

// TestamentOf returns the testament of a USFM book code.
func TestamentOf(book string) Testament {
	if ntBooks[strings.ToUpper(book)] {
		return NewTestament
	}
	return OldTestament
}
