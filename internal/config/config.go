// Package config loads the yaml settings file shared by the api, worker
// and scanner binaries. Environment variables override the file so
// container deployments can inject credentials without editing it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when the CONFIG_PATH variable is unset.
const DefaultPath = "config/config.yaml"

// Duration wraps time.Duration so the yaml file can say "600s" or "2h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to the standard type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// DSN renders the go-sql-driver connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)
}

// AMQPConfig holds the broker settings for the notification queue.
type AMQPConfig struct {
	URL       string   `yaml:"url"`
	Queue     string   `yaml:"queue"`
	Prefetch  int      `yaml:"prefetch"`
	Heartbeat Duration `yaml:"heartbeat"`
}

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// AuthConfig holds the token signing settings.
type AuthConfig struct {
	JWTSecret string   `yaml:"jwtSecret"`
	TokenTTL  Duration `yaml:"tokenTtl"`
}

// Config is the root of the settings file.
type Config struct {
	Mode     string         `yaml:"mode"`
	HTTPAddr string         `yaml:"httpAddr"`
	DB       DatabaseConfig `yaml:"database"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Auth     AuthConfig     `yaml:"auth"`
}

// Load reads the yaml file at path and applies environment overrides.
// An empty path falls back to CONFIG_PATH, then DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.AMQP.Queue == "" {
		c.AMQP.Queue = "transaction_email_queue"
	}
	if c.AMQP.Prefetch == 0 {
		c.AMQP.Prefetch = 10
	}
	if c.AMQP.Heartbeat == 0 {
		c.AMQP.Heartbeat = Duration(600 * time.Second)
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
}

func (c *Config) applyEnv() {
	override(&c.AMQP.URL, "RABBITMQ_URL")
	override(&c.DB.Host, "DB_HOST")
	override(&c.DB.Username, "DB_USER")
	override(&c.DB.Password, "DB_PASSWORD")
	override(&c.DB.DBName, "DB_NAME")
	override(&c.SMTP.Host, "SMTP_HOST")
	override(&c.SMTP.Username, "SMTP_USERNAME")
	override(&c.SMTP.Password, "SMTP_PASSWORD")
	override(&c.SMTP.From, "SMTP_FROM")
	override(&c.Auth.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.DB.Port = port
		}
	}
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
