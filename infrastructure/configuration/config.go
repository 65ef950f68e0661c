package configuration

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"strava-kudos-bot/infrastructure/logger"

	"github.com/spf13/viper"
)

var ErrMissingCredentials = errors.New("missing required Strava API credentials")

type Config struct {
	Strava Strava `mapstructure:"strava"`
	Kudos  Kudos  `mapstructure:"kudos"`
	Ledger Ledger `mapstructure:"ledger"`
	Logger Logger `mapstructure:"logger"`
}

type Strava struct {
	ClientID      string        `mapstructure:"clientId"`
	ClientSecret  string        `mapstructure:"clientSecret"`
	AccessToken   string        `mapstructure:"accessToken"`
	RefreshToken  string        `mapstructure:"refreshToken"`
	BaseURL       string        `mapstructure:"baseURL"`
	TokenURL      string        `mapstructure:"tokenURL"`
	MaxRetries    int           `mapstructure:"maxRetries"`
	RetryInterval time.Duration `mapstructure:"retryInterval"`
	RateLimitWait time.Duration `mapstructure:"rateLimitWait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Kudos tunes the reciprocity cycle and its polling loop
type Kudos struct {
	OwnActivities      int           `mapstructure:"ownActivities"`
	EndorserActivities int           `mapstructure:"endorserActivities"`
	Delay              time.Duration `mapstructure:"delay"`
	PollInterval       time.Duration `mapstructure:"pollInterval"`
	ErrorRetryDelay    time.Duration `mapstructure:"errorRetryDelay"`
	RunOnce            bool          `mapstructure:"runOnce"`
}

// Ledger selects where processed/kudos marks are stored.
// Vendor is one of sqlite, postgres, mssql.
type Ledger struct {
	Vendor string `mapstructure:"vendor"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type Logger struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

var envBindings = map[string]string{
	"strava.clientId":          "STRAVA_CLIENT_ID",
	"strava.clientSecret":      "STRAVA_CLIENT_SECRET",
	"strava.accessToken":       "STRAVA_ACCESS_TOKEN",
	"strava.refreshToken":      "STRAVA_REFRESH_TOKEN",
	"strava.baseURL":           "STRAVA_BASE_URL",
	"strava.tokenURL":          "STRAVA_TOKEN_URL",
	"strava.maxRetries":        "STRAVA_MAX_RETRIES",
	"strava.retryInterval":     "STRAVA_RETRY_INTERVAL",
	"strava.rateLimitWait":     "STRAVA_RATE_LIMIT_WAIT",
	"strava.timeout":           "STRAVA_TIMEOUT",
	"kudos.ownActivities":      "KUDOS_OWN_ACTIVITIES",
	"kudos.endorserActivities": "KUDOS_ENDORSER_ACTIVITIES",
	"kudos.delay":              "KUDOS_DELAY",
	"kudos.pollInterval":       "KUDOS_POLL_INTERVAL",
	"kudos.errorRetryDelay":    "KUDOS_ERROR_RETRY_DELAY",
	"kudos.runOnce":            "KUDOS_RUN_ONCE",
	"ledger.vendor":            "LEDGER_VENDOR",
	"ledger.path":              "LEDGER_PATH",
	"ledger.dsn":               "LEDGER_DSN",
	"logger.format":            "LOG_FORMAT",
	"logger.level":             "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("strava.baseURL", "https://www.strava.com/api/v3")
	v.SetDefault("strava.tokenURL", "https://www.strava.com/oauth/token")
	v.SetDefault("strava.maxRetries", 3)
	v.SetDefault("strava.retryInterval", time.Second)
	v.SetDefault("strava.rateLimitWait", time.Minute)
	v.SetDefault("strava.timeout", 30*time.Second)

	v.SetDefault("kudos.ownActivities", 20)
	v.SetDefault("kudos.endorserActivities", 2)
	v.SetDefault("kudos.delay", 2*time.Second)
	v.SetDefault("kudos.pollInterval", 10*time.Minute)
	v.SetDefault("kudos.errorRetryDelay", time.Minute)
	v.SetDefault("kudos.runOnce", false)

	v.SetDefault("ledger.vendor", "sqlite")
	v.SetDefault("ledger.path", "strava_bot.db")

	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.level", "info")
}

// LoadConfig reads the optional config file, then environment variables on top.
// The four Strava credentials are mandatory.
func LoadConfig() (*Config, error) {
	v := viper.New()
	name := getConfig()
	v.SetConfigName(name)
	v.SetConfigType("json")
	v.AddConfigPath(".")
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file %s: %w", name, err)
		}
		logger.GetLogger().WithField("config", name).Debug("Config file not found, using environment only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"config":        name,
		"ledgerVendor":  cfg.Ledger.Vendor,
		"pollInterval":  cfg.Kudos.PollInterval.String(),
		"runOnce":       cfg.Kudos.RunOnce,
		"hasAccessKey":  cfg.Strava.AccessToken != "",
		"hasRefreshKey": cfg.Strava.RefreshToken != "",
	}).Info("Configuration loaded successfully")
	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	required := []struct {
		env   string
		value string
	}{
		{"STRAVA_CLIENT_ID", c.Strava.ClientID},
		{"STRAVA_CLIENT_SECRET", c.Strava.ClientSecret},
		{"STRAVA_ACCESS_TOKEN", c.Strava.AccessToken},
		{"STRAVA_REFRESH_TOKEN", c.Strava.RefreshToken},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	switch c.Ledger.Vendor {
	case "sqlite", "postgres", "mssql":
	default:
		return fmt.Errorf("unsupported ledger vendor %q", c.Ledger.Vendor)
	}
	if c.Ledger.Vendor != "sqlite" && c.Ledger.DSN == "" {
		return fmt.Errorf("ledger vendor %s requires LEDGER_DSN", c.Ledger.Vendor)
	}
	return nil
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}
