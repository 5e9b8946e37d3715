package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/headscore/headscore/internal/pkg/scanerrors"
)

// Config is the full runtime configuration, read from a YAML file in the
// data dir with HEADSCORE_-prefixed env overrides.
type Config struct {
	Debug bool `yaml:"debug" mapstructure:"debug"`
	// BaseURL is used to construct the details_url field of API
	// responses. The HTTPOBS_BASE_URL env var takes precedence.
	BaseURL string        `yaml:"base-url" mapstructure:"base-url" doc:"Public base URL used to build details_url in API responses"`
	Scanner ScannerConfig `yaml:"scanner" mapstructure:"scanner"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
}

// ScannerConfig tunes the retrieval and caching policies.
type ScannerConfig struct {
	// Cooldown is the minimum interval between two retrievals for the
	// same site key.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown" doc:"Cache window for POST scans (e.g. 60s)"`
	// CacheTimeForGet is the cache window applied to GET analyze calls.
	CacheTimeForGet time.Duration `yaml:"cache-time-for-get" mapstructure:"cache-time-for-get" doc:"Cache window for GET scans (e.g. 24h)"`
	// MaxRedirects caps the HTTPS probe's redirect chain.
	MaxRedirects int `yaml:"max-redirects" mapstructure:"max-redirects" doc:"Maximum redirects followed by the HTTPS probe"`
	// BodyCap bounds retained response bodies, in bytes.
	BodyCap int64 `yaml:"body-cap" mapstructure:"body-cap" doc:"Response body size cap in bytes"`
	// ProbeTimeout is the per-request probe timeout.
	ProbeTimeout time.Duration `yaml:"probe-timeout" mapstructure:"probe-timeout" doc:"Per-probe timeout (e.g. 15s)"`
	// ScanTimeout is the hard wall-clock cap for one scan.
	ScanTimeout time.Duration `yaml:"scan-timeout" mapstructure:"scan-timeout" doc:"Overall wall-clock cap per scan (e.g. 45s)"`
	// AllowPrivate permits targets resolving to loopback/private ranges.
	AllowPrivate bool `yaml:"allow-private" mapstructure:"allow-private" doc:"Allow scanning hosts that resolve to private ranges"`
	// CORPExpectation is the default expectation of the
	// cross-origin-resource-policy test.
	CORPExpectation string `yaml:"corp-expectation" mapstructure:"corp-expectation"`
}

// ServerConfig tunes the API server.
type ServerConfig struct {
	// Listen is the address the API binds to.
	Listen string `yaml:"listen" mapstructure:"listen" doc:"API listen address (host:port)"`
	// ShutdownGrace bounds graceful shutdown.
	ShutdownGrace time.Duration `yaml:"shutdown-grace" mapstructure:"shutdown-grace"`
}

var defaultConfig = &Config{
	Debug:   false,
	BaseURL: "",
	Scanner: ScannerConfig{
		Cooldown:        60 * time.Second,
		CacheTimeForGet: 24 * time.Hour,
		MaxRedirects:    20,
		BodyCap:         512 * 1024,
		ProbeTimeout:    15 * time.Second,
		ScanTimeout:     45 * time.Second,
		AllowPrivate:    false,
	},
	Server: ServerConfig{
		Listen:        "127.0.0.1:57001",
		ShutdownGrace: 10 * time.Second,
	},
}

const debugKey = "debug"

// New loads (creating on first run) the config file under dataDir.
func New(dataDir string) (*Config, scanerrors.ScanError) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dataDir)
	viper.SetEnvPrefix("HEADSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configPath := filepath.Join(dataDir, "config.yaml")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, newInvalidConfigError(fmt.Errorf("failed to read config file: %w", err).Error())
		}

		if err := setViperDefaults(defaultConfig); err != nil {
			return nil, err
		}

		if err := viper.WriteConfigAs(configPath); err != nil {
			return nil, newInvalidConfigError(fmt.Errorf("failed to write config file: %w", err).Error())
		}
	} else {
		// Config file was read successfully, but we still need to set
		// defaults for any missing keys
		if err := setViperDefaults(defaultConfig); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := cfg.Unmarshal(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Unmarshal re-reads the viper state into the receiver.
func (c *Config) Unmarshal() scanerrors.ScanError {
	hooks := mapstructure.ComposeDecodeHookFunc(
		rejectNumericDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	if err := viper.Unmarshal(c, viper.DecodeHook(hooks)); err != nil {
		return newInvalidConfigError(fmt.Errorf("failed to unmarshal config: %w", err).Error())
	}
	c.applyEnvOverrides()
	return nil
}

// applyEnvOverrides reads the externally defined env vars the service
// contract names explicitly.
func (c *Config) applyEnvOverrides() {
	if baseURL := os.Getenv("HTTPOBS_BASE_URL"); baseURL != "" {
		c.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

// BindGlobalFlags binds all global configuration flags to viper.
// This should be called on the root command.
func BindGlobalFlags(persistentFlags *pflag.FlagSet) error {
	persistentFlags.Bool(debugKey, false, "enable debug logging")
	if err := viper.BindPFlag(debugKey, persistentFlags.Lookup(debugKey)); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	return nil
}

// setViperDefaults walks the default config and registers each leaf under
// its dotted key so partial config files keep full defaults.
func setViperDefaults(cfg *Config) scanerrors.ScanError {
	defaults := map[string]any{}
	flatten("", reflect.ValueOf(*cfg), defaults)
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
	return nil
}

func flatten(prefix string, v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			flatten(key, field, out)
			continue
		}
		if d, ok := field.Interface().(time.Duration); ok {
			out[key] = d.String()
			continue
		}
		out[key] = field.Interface()
	}
}

// rejectNumericDurationHookFunc disallows numeric values for time.Duration
// fields, forcing users to include an explicit unit (e.g., "30s", "2m").
func rejectNumericDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to == reflect.TypeOf(time.Duration(0)) {
			switch from.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
				reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
				reflect.Float32, reflect.Float64:
				return nil, fmt.Errorf("missing unit in duration")
			}
		}
		return data, nil
	}
}
