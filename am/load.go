package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/storygraph/errors"
)

var (
	globalConfig  *Config
	globalSources *viper.Viper
)

// Load returns the merged configuration, reading it on first use and
// caching it afterwards. Reset (or a config watcher reload) invalidates
// the cache.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := LoadWithViper(sources())
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

// LoadWithViper unmarshals a Config from an already-assembled viper
// instance. Tests use this to load from controlled sources.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	return &cfg, nil
}

// LoadFromFile reads exactly one config file on top of the defaults,
// skipping the merged search paths and environment bindings. The config
// watcher reloads through here so a test can point it at a temp file.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return cfg, nil
}

// GetViper exposes the merged sources for key-level access
func GetViper() *viper.Viper {
	return sources()
}

// Get returns one configuration value by dotted key
func Get(key string) interface{} {
	return sources().Get(key)
}

// Reset drops the cached config and sources so the next Load re-reads
// everything.
func Reset() {
	globalConfig = nil
	globalSources = nil
}

// sources assembles the merged viper instance once: defaults, then the
// config files in precedence order, then environment variables on top.
func sources() *viper.Viper {
	if globalSources != nil {
		return globalSources
	}

	v := viper.New()
	v.SetEnvPrefix("STORYGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindSensitiveEnvVars(v)
	SetDefaults(v)

	for _, path := range configFilePaths() {
		mergeFile(v, path)
	}

	globalSources = v
	return v
}

// configFilePaths lists the config files lowest precedence first:
// system, then user, then project.
func configFilePaths() []string {
	paths := []string{"/etc/storygraph/config.toml"}

	if userDir := UserConfigDir(); userDir != "" {
		os.MkdirAll(userDir, DefaultDirPermissions)
		paths = append(paths, filepath.Join(userDir, "am.toml"))
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, project)
	}
	return paths
}

// mergeFile overlays one TOML file's settings onto v. Missing or
// unreadable files are skipped; later files win on key conflicts.
func mergeFile(v *viper.Viper, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("toml")
	if err := file.ReadInConfig(); err != nil {
		return
	}
	for key, value := range file.AllSettings() {
		v.Set(key, value)
	}
}

// findProjectConfig walks up from the working directory looking for a
// project config. am.toml wins over storygraph.toml in the same
// directory.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		for _, name := range []string{"am.toml", "storygraph.toml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// UserConfigDir returns the per-user config directory (~/.storygraph)
func UserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".storygraph")
}

// GetDatabasePath resolves the usage database location. The DB_PATH
// environment variable overrides the config for dev setups.
func GetDatabasePath() (string, error) {
	if path := os.Getenv("DB_PATH"); path != "" {
		return path, nil
	}
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.GetDatabasePath(), nil
}
