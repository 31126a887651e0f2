package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
applicant:
  first_name: Jane
  last_name: Doe
  contacts:
    email: jane@example.com
    phone: "555-0100"
  skills:
    - go
job:
  title: software developer
  location: Toronto
openai:
  create_applicant_email:
    developer_content: "You write emails."
    user_content: "Write to {job.business}."
database:
  sqlite:
    path: test.db
jobbank:
  max_delay: 2s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EMAIL_HOST", "smtp.example.com")
	t.Setenv("EMAIL_PORT", "465")

	s, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	cfg := s.Config()
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "Jane", cfg.Applicant.FirstName)
	assert.Equal(t, "jane@example.com", cfg.Applicant.Contacts.Email)
	assert.Equal(t, "software developer", cfg.Job.Title)
	assert.False(t, cfg.Job.Apply)
	assert.Equal(t, []string{"jobbank"}, cfg.Job.Finders)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "test.db", cfg.Database.GetDSN())
	assert.Equal(t, "smtp.example.com", cfg.Email.Host)
	assert.Equal(t, 465, cfg.Email.Port)
	assert.True(t, cfg.Email.UsesSSL())
	assert.Equal(t, 2*time.Second, cfg.JobBank.MaxDelay)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, "Write to {job.business}.", cfg.OpenAI.CreateApplicantEmail.UserContent)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load(writeConfig(t, sampleYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load(writeConfig(t, "applicant: [unclosed"))
	assert.Error(t, err)
}

func TestSettings_Get(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	s, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	section, err := s.Get("applicant")
	require.NoError(t, err)
	applicant, ok := section.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jane", applicant["first_name"])
	assert.Contains(t, applicant, "skills")

	_, err = s.Get("nonexistent")
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestSettings_Reload(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	path := writeConfig(t, sampleYAML)
	s, err := Load(path)
	require.NoError(t, err)
	before := s.Config()

	updated := sampleYAML + "\nscheduler:\n  interval_minutes: 15\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	require.NoError(t, s.Reload())
	assert.Equal(t, 15, s.Config().Scheduler.IntervalMinutes)
	assert.Equal(t, 60, before.Scheduler.IntervalMinutes)
}

func TestSettings_ReloadKeepsPreviousOnError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	path := writeConfig(t, sampleYAML)
	s, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("job: [broken"), 0o600))
	assert.Error(t, s.Reload())
	assert.Equal(t, "Jane", s.Config().Applicant.FirstName)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Applicant: ApplicantConfig{Contacts: ContactsConfig{Email: "jane@example.com"}},
			OpenAI:    OpenAIConfig{APIKey: "sk-test"},
			Database:  DatabaseConfig{Driver: "sqlite", SQLite: SQLiteConfig{Path: "x.db"}},
			Email:     EmailConfig{Transport: "smtp"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing applicant email", func(c *Config) { c.Applicant.Contacts.Email = "" }, "applicant email"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "unsupported database driver"},
		{"mysql without host", func(c *Config) { c.Database.Driver = "mysql" }, "database host"},
		{"unknown transport", func(c *Config) { c.Email.Transport = "fax" }, "unsupported email transport"},
		{"gmail without credentials", func(c *Config) {
			c.Email.Transport = "gmail"
			c.Job.Apply = true
		}, "Gmail OAuth2"},
		{"scheduler interval", func(c *Config) { c.Scheduler.Enabled = true }, "scheduler interval"},
		{"delays inverted", func(c *Config) { c.JobBank.MinDelay = time.Second }, "max_delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	mysql := DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "h", Port: 3306, DBName: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=Local", mysql.GetDSN())

	pg := DatabaseConfig{Driver: "postgres", User: "u", Password: "p", Host: "h", Port: 5432, DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h user=u password=p dbname=d port=5432 sslmode=disable", pg.GetDSN())
}
