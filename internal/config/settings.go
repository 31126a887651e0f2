package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

// Settings is the configuration store shared by the application components.
// It is read-only after Load; Reload replaces every value at once.
type Settings struct {
	mu   sync.RWMutex
	path string
	v    *viper.Viper
	cfg  *Config
}

// Load reads the YAML file at path, applies defaults and environment overrides
func Load(path string) (*Settings, error) {
	s := &Settings{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the configuration file and swaps the in-memory snapshot
func (s *Settings) Reload() error {
	v, cfg, err := read(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.v = v
	s.cfg = cfg
	s.mu.Unlock()

	return nil
}

// Get returns the raw value of a top-level section
func (s *Settings) Get(section string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.v.IsSet(section) {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, section)
	}
	return s.v.Get(section), nil
}

// Config returns the typed configuration snapshot
func (s *Settings) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Path returns the configuration file location
func (s *Settings) Path() string {
	return s.path
}

func read(path string) (*viper.Viper, *Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return v, &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("job.apply", false)
	v.SetDefault("job.finders", []string{"jobbank"})

	v.SetDefault("log.level", "info")

	v.SetDefault("openai.version", "gpt-4o-mini")
	v.SetDefault("openai.timeout", "60s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "job_applier.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("email.transport", "smtp")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.timeout", "30s")
	v.SetDefault("email.gmail.max_retries", 3)
	v.SetDefault("email.imap.host", "imap.gmail.com")
	v.SetDefault("email.imap.port", 993)
	v.SetDefault("email.imap.mailbox", "Sent")

	v.SetDefault("jobbank.base_url", "https://www.jobbank.gc.ca")
	v.SetDefault("jobbank.sort", "M")
	v.SetDefault("jobbank.min_delay", "0s")
	v.SetDefault("jobbank.max_delay", "1s")
	v.SetDefault("jobbank.timeout", "30s")
	v.SetDefault("jobbank.max_pages", 10)

	v.SetDefault("converter.enabled", true)
	v.SetDefault("converter.timeout", "2m")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval_minutes", 60)

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.base_url", "OPENAI_BASE_URL")

	v.BindEnv("email.user", "EMAIL_USER")
	v.BindEnv("email.password", "EMAIL_PASSWORD")
	v.BindEnv("email.host", "EMAIL_HOST")
	v.BindEnv("email.port", "EMAIL_PORT")
	v.BindEnv("email.imap.user", "EMAIL_USER")
	v.BindEnv("email.imap.password", "EMAIL_PASSWORD")

	v.BindEnv("email.gmail.client_id", "GMAIL_CLIENT_ID")
	v.BindEnv("email.gmail.client_secret", "GMAIL_CLIENT_SECRET")
	v.BindEnv("email.gmail.refresh_token", "GMAIL_REFRESH_TOKEN")
	v.BindEnv("email.gmail.user_email", "GMAIL_USER_EMAIL")

	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")

	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")
}
