package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings read from spotify-launcher.conf and the environment.
type Config struct {
	// Spotify configures the launched client and the update behaviour.
	Spotify Spotify `mapstructure:"spotify"`
	// Repository points at the signed package repository.
	Repository Repository `mapstructure:"repository"`
}

// Spotify is the [spotify] section of the config file.
type Spotify struct {
	// ExtraArguments are appended to the spotify command line.
	ExtraArguments []string `mapstructure:"extra_arguments"`
	// ExtraEnvVars are KEY=value pairs added to the spotify environment.
	ExtraEnvVars []string `mapstructure:"extra_env_vars"`
	// DownloadAttempts bounds the resume loop; 0 means unlimited.
	DownloadAttempts int `mapstructure:"download_attempts"`
	// SkipUpdate never checks for updates when set.
	SkipUpdate bool `mapstructure:"skip_update"`
	// Verifier selects the signature verifier: auto, sqv or native.
	Verifier string `mapstructure:"verifier"`
	// Keyring is the OpenPGP keyring used to authenticate the repository.
	Keyring string `mapstructure:"keyring"`
	// Timeout bounds every network operation. Nil keeps the transport
	// defaults, zero disables bounding.
	Timeout *time.Duration `mapstructure:"-"`
}

// Repository is the [repository] section of the config file.
type Repository struct {
	// URL is the repository base URL.
	URL string `mapstructure:"url"`
	// Suite is the dists/<suite> directory holding Release.
	Suite string `mapstructure:"suite"`
	// Component is the archive area listing the package.
	Component string `mapstructure:"component"`
	// Package is the name of the package to install.
	Package string `mapstructure:"package"`
}

const (
	// DefaultConfigFilename is looked up in the user config dir and /etc.
	DefaultConfigFilename = "spotify-launcher.conf"

	// DefaultRepositoryURL is the upstream package repository.
	DefaultRepositoryURL = "http://repository.spotify.com"

	// DefaultSuite is the suite the launcher tracks.
	DefaultSuite = "testing"

	// DefaultComponent is the archive area holding the client.
	DefaultComponent = "non-free"

	// DefaultPackage is the package the launcher installs.
	DefaultPackage = "spotify-client"

	// DefaultKeyring is the keyring shipped with the launcher package.
	DefaultKeyring = "/usr/share/spotify-launcher/keyring.pgp"

	// DefaultDownloadAttempts is how often a download is resumed before giving up.
	DefaultDownloadAttempts = 5

	// DefaultVerifier picks sqv when it is installed and falls back to native verification.
	DefaultVerifier = "auto"

	// DefaultFilePermissions is used for files the launcher writes.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is used for directories the launcher creates.
	DefaultDirPermissions = 0o755

	envPrefix  = "SPOTIFY_LAUNCHER"
	keyTimeout = "spotify.timeout"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidAttempts is returned for negative download attempts.
	errInvalidAttempts = errors.New("download attempts must not be negative")
	// errInvalidVerifier is returned for an unknown verifier name.
	errInvalidVerifier = errors.New("unknown signature verifier")
	// errInvalidTimeout is returned when the timeout cannot be parsed.
	errInvalidTimeout = errors.New("invalid timeout")
)

// Load reads configuration from path, or from the first file found by Locate
// when path is empty, and layers SPOTIFY_LAUNCHER_* environment variables on top.
// A missing config file is not an error: defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Locate()
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	if v.IsSet(keyTimeout) {
		timeout, err := parseTimeout(v.Get(keyTimeout))
		if err != nil {
			return nil, err
		}

		cfg.Spotify.Timeout = &timeout
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a validated configuration without reading any file.
func Default() *Config {
	cfg := &Config{Spotify: Spotify{DownloadAttempts: DefaultDownloadAttempts}}

	// Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Locate returns the first existing config file, or "" when there is none.
func Locate() string {
	candidates := make([]string, 0, 2)

	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, DefaultConfigFilename))
	}

	candidates = append(candidates, filepath.Join("/etc", DefaultConfigFilename))

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}

	return ""
}

// Validate checks the provided settings and fills in defaults for empty fields.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	repo := &settings.Repository
	if repo.URL == "" {
		repo.URL = DefaultRepositoryURL
	}

	if repo.Suite == "" {
		repo.Suite = DefaultSuite
	}

	if repo.Component == "" {
		repo.Component = DefaultComponent
	}

	if repo.Package == "" {
		repo.Package = DefaultPackage
	}

	if _, err := url.ParseRequestURI(repo.URL); err != nil {
		return fmt.Errorf("invalid repository URL: %w", err)
	}

	spotify := &settings.Spotify
	if spotify.DownloadAttempts < 0 {
		return fmt.Errorf("%d: %w", spotify.DownloadAttempts, errInvalidAttempts)
	}

	if spotify.Keyring == "" {
		spotify.Keyring = DefaultKeyring
	}

	switch spotify.Verifier {
	case "":
		spotify.Verifier = DefaultVerifier
	case "auto", "sqv", "native":
	default:
		return fmt.Errorf("%q: %w", spotify.Verifier, errInvalidVerifier)
	}

	if spotify.Timeout != nil && *spotify.Timeout < 0 {
		return fmt.Errorf("%s: %w", *spotify.Timeout, errInvalidTimeout)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("spotify.extra_arguments", []string{})
	v.SetDefault("spotify.extra_env_vars", []string{})
	v.SetDefault("spotify.download_attempts", DefaultDownloadAttempts)
	v.SetDefault("spotify.skip_update", false)
	v.SetDefault("spotify.verifier", DefaultVerifier)
	v.SetDefault("spotify.keyring", DefaultKeyring)
	v.SetDefault("repository.url", DefaultRepositoryURL)
	v.SetDefault("repository.suite", DefaultSuite)
	v.SetDefault("repository.component", DefaultComponent)
	v.SetDefault("repository.package", DefaultPackage)
	// spotify.timeout has no default: unset keeps the transport defaults, 0 disables them.
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err = v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// parseTimeout accepts whole seconds (the historic format) or a Go duration string.
func parseTimeout(raw any) (time.Duration, error) {
	switch value := raw.(type) {
	case int:
		return time.Duration(value) * time.Second, nil
	case int64:
		return time.Duration(value) * time.Second, nil
	case float64:
		return time.Duration(value * float64(time.Second)), nil
	case time.Duration:
		return value, nil
	case string:
		value = strings.TrimSpace(value)
		if seconds, err := strconv.ParseUint(value, 10, 32); err == nil {
			return time.Duration(seconds) * time.Second, nil
		}

		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", value, errInvalidTimeout)
		}

		return d, nil
	default:
		return 0, fmt.Errorf("%v: %w", raw, errInvalidTimeout)
	}
}
