package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSectionNotFound is returned when a settings section is absent
var ErrSectionNotFound = errors.New("section not found in settings")

// Config holds all configuration for the application
type Config struct {
	Applicant   ApplicantConfig `mapstructure:"applicant"`
	Job         JobConfig       `mapstructure:"job"`
	Log         LogConfig       `mapstructure:"log"`
	OpenAI      OpenAIConfig    `mapstructure:"openai"`
	Database    DatabaseConfig  `mapstructure:"database"`
	CoverLetter TemplateConfig  `mapstructure:"cover_letter"`
	Resume      TemplateConfig  `mapstructure:"resume"`
	Email       EmailConfig     `mapstructure:"email"`
	JobBank     JobBankConfig   `mapstructure:"jobbank"`
	Converter   ConverterConfig `mapstructure:"converter"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
	Server      ServerConfig    `mapstructure:"server"`
}

// ApplicantConfig holds the job seeker defaults
type ApplicantConfig struct {
	FirstName   string         `mapstructure:"first_name"`
	LastName    string         `mapstructure:"last_name"`
	Contacts    ContactsConfig `mapstructure:"contacts"`
	Resume      FileConfig     `mapstructure:"resume"`
	CoverLetter FileConfig     `mapstructure:"cover_letter"`
}

// ContactsConfig holds applicant contact details
type ContactsConfig struct {
	Email   string `mapstructure:"email"`
	Phone   string `mapstructure:"phone"`
	Address string `mapstructure:"address"`
}

// FileConfig points at a single file on disk
type FileConfig struct {
	File string `mapstructure:"file"`
}

// TemplateConfig holds a document template location
type TemplateConfig struct {
	Template FileConfig `mapstructure:"template"`
}

// JobConfig holds the search query and the global apply switch
type JobConfig struct {
	Title    string   `mapstructure:"title"`
	Location string   `mapstructure:"location"`
	Apply    bool     `mapstructure:"apply"`
	Finders  []string `mapstructure:"finders"`
}

// LogConfig holds the log level and the audit file per record kind
type LogConfig struct {
	Level        string     `mapstructure:"level"`
	Jobs         FileConfig `mapstructure:"jobs"`
	Applicants   FileConfig `mapstructure:"applicants"`
	CoverLetters FileConfig `mapstructure:"cover_letters"`
	Resumes      FileConfig `mapstructure:"resumes"`
	Applications FileConfig `mapstructure:"applications"`
}

// PromptConfig is a developer/user prompt pair
type PromptConfig struct {
	DeveloperContent string `mapstructure:"developer_content"`
	UserContent      string `mapstructure:"user_content"`
}

// OpenAIConfig holds text generation settings
type OpenAIConfig struct {
	APIKey                     string        `mapstructure:"api_key"`
	Version                    string        `mapstructure:"version"`
	BaseURL                    string        `mapstructure:"base_url"`
	Timeout                    time.Duration `mapstructure:"timeout"`
	CreateApplicantCoverLetter PromptConfig  `mapstructure:"create_applicant_cover_letter"`
	CreateApplicantResume      PromptConfig  `mapstructure:"create_applicant_resume"`
	CreateApplicantEmail       PromptConfig  `mapstructure:"create_applicant_email"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	SQLite   SQLiteConfig `mapstructure:"sqlite"`
	Host     string       `mapstructure:"host"`
	Port     int          `mapstructure:"port"`
	User     string       `mapstructure:"user"`
	Password string       `mapstructure:"password"`
	DBName   string       `mapstructure:"dbname"`
	SSLMode  string       `mapstructure:"sslmode"`
}

// SQLiteConfig holds the sqlite file location
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// EmailConfig holds outgoing mail configuration
type EmailConfig struct {
	Transport string        `mapstructure:"transport"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	User      string        `mapstructure:"user"`
	Password  string        `mapstructure:"password"`
	From      string        `mapstructure:"from"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Gmail     GmailConfig   `mapstructure:"gmail"`
	IMAP      IMAPConfig    `mapstructure:"imap"`
}

// GmailConfig holds Gmail API configuration
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	UserEmail    string `mapstructure:"user_email"`
	MaxRetries   int    `mapstructure:"max_retries"`
}

// IMAPConfig controls archiving of sent applications
type IMAPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Mailbox  string `mapstructure:"mailbox"`
}

// JobBankConfig holds Job Bank scraping configuration
type JobBankConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Sort     string        `mapstructure:"sort"`
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxPages int           `mapstructure:"max_pages"`
}

// ConverterConfig controls the optional PDF conversion step
type ConverterConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GetDSN returns the database connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.DBName)
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
	default:
		return c.SQLite.Path
	}
}

// UsesSSL reports whether the SMTP connection uses implicit TLS
func (c *EmailConfig) UsesSSL() bool {
	return c.Port == 465
}

// Sender returns the address used in the From header
func (c *EmailConfig) Sender() string {
	if c.From != "" {
		return c.From
	}
	if c.Transport == "gmail" && c.Gmail.UserEmail != "" {
		return c.Gmail.UserEmail
	}
	return c.User
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}

	if c.Applicant.Contacts.Email == "" {
		return fmt.Errorf("applicant email is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("database sqlite path is required")
		}
	case "mysql", "postgres":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return fmt.Errorf("database host, user, and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Email.Transport {
	case "smtp", "gmail":
	default:
		return fmt.Errorf("unsupported email transport %q", c.Email.Transport)
	}

	if c.Email.Transport == "gmail" && c.Job.Apply {
		if c.Email.Gmail.ClientID == "" || c.Email.Gmail.ClientSecret == "" || c.Email.Gmail.RefreshToken == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required when using the gmail transport")
		}
	}

	if c.Email.IMAP.Enabled && (c.Email.IMAP.Host == "" || c.Email.IMAP.User == "") {
		return fmt.Errorf("IMAP host and user are required when archiving is enabled")
	}

	if c.Scheduler.Enabled && c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	if c.JobBank.MaxDelay < c.JobBank.MinDelay {
		return fmt.Errorf("jobbank max_delay must not be lower than min_delay")
	}

	return nil
}
