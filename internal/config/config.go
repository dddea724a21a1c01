package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Standup  StandupConfig  `yaml:"standup"`
	Slack    SlackConfig    `yaml:"slack"`
	Auth     AuthConfig     `yaml:"auth"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// LLMConfig selects the text-generation backend once per process.
// Backend is "ollama" (local inference server) or "openai"
// (hosted chat-completions compatible API: OpenAI, Groq, Together...).
type LLMConfig struct {
	Backend        string  `yaml:"backend"`
	Endpoint       string  `yaml:"endpoint"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RetryAttempts  int     `yaml:"retry_attempts"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// StandupConfig controls what a repeated generate run on the same
// (team, date) does: allow | replace | reject.
type StandupConfig struct {
	DuplicatePolicy string `yaml:"duplicate_policy"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

func Load(configFile string) *Config {
	c := &Config{
		Server: ServerConfig{Port: 8000},
		LLM: LLMConfig{
			Backend:        "ollama",
			Endpoint:       "http://localhost:11434",
			Model:          "llama3.2",
			Temperature:    0.3,
			MaxTokens:      2000,
			TimeoutSeconds: 60,
		},
		Log:      LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{Host: "localhost", Port: 3306, Name: "scrum_master"},
		Standup:  StandupConfig{DuplicatePolicy: "allow"},
		Auth:     AuthConfig{JWTSecret: "ai-scrum-master-secret"},
	}

	paths := []string{"etc/config-dev.yaml", "/etc/scrum-master/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.LLM.Backend, "LLM_BACKEND")
	envOverride(&c.LLM.Endpoint, "LLM_ENDPOINT")
	envOverride(&c.LLM.APIKey, "LLM_API_KEY")
	envOverride(&c.LLM.Model, "LLM_MODEL")
	envOverride(&c.Database.Host, "DB_HOST")
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASS")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Standup.DuplicatePolicy, "STANDUP_DUPLICATE_POLICY")
	envOverride(&c.Slack.WebhookURL, "SLACK_WEBHOOK_URL")
	envOverride(&c.Auth.JWTSecret, "JWT_SECRET")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "DB_PORT")
	envOverrideInt(&c.LLM.MaxTokens, "LLM_MAX_TOKENS")
	envOverrideInt(&c.LLM.RetryAttempts, "LLM_RETRY_ATTEMPTS")

	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	cfg := gomysql.NewConfig()
	cfg.User = c.Database.User
	cfg.Passwd = c.Database.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
	cfg.DBName = c.Database.Name
	cfg.ParseTime = true

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
