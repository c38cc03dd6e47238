// internal/config/config.go
package config

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	TrustProxy bool   `env:"TRUST_PROXY" envDefault:"false"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`

	DB DBConfig

	Session SessionConfig

	Workflow WorkflowConfig

	// NUMBER_OF_CAMPAIGNS caps how many campaigns may be Active at once.
	CampaignLimit int `env:"NUMBER_OF_CAMPAIGNS" envDefault:"1"`

	AMQPURL   string `env:"AMQP_URL"`
	AMQPQueue string `env:"AMQP_QUEUE" envDefault:"campaign_events"`
}

type DBConfig struct {
	Driver       string        `env:"DB_DRIVER" envDefault:"postgres"`
	Host         string        `env:"DB_HOST" envDefault:"localhost"`
	Port         string        `env:"DB_PORT"`
	User         string        `env:"DB_USER"`
	Password     string        `env:"DB_PASSWORD"`
	Name         string        `env:"DB_NAME"`
	SSLMode      string        `env:"DB_SSLMODE" envDefault:"disable"`
	Path         string        `env:"DB_PATH" envDefault:"dashboard.db"`
	PoolSize     int           `env:"DB_POOL_SIZE" envDefault:"10"`
	QueueLimit   int           `env:"DB_QUEUE_LIMIT" envDefault:"0"`
	QueueTimeout time.Duration `env:"DB_QUEUE_TIMEOUT" envDefault:"30s"`
}

type SessionConfig struct {
	Secret        string        `env:"SESSION_SECRET"`
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	RememberTTL   time.Duration `env:"SESSION_REMEMBER_TTL" envDefault:"168h"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"15m"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieHTTP    bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSite    string        `env:"COOKIE_SAME_SITE" envDefault:"lax"`
}

type WorkflowConfig struct {
	Webhook1       string        `env:"N8N_WEBHOOK_1"`
	Webhook2       string        `env:"N8N_WEBHOOK_2"`
	Kind1          string        `env:"WORKFLOW_KIND_1" envDefault:"AIprospection"`
	Kind2          string        `env:"WORKFLOW_KIND_2" envDefault:"ListProspection"`
	RoutesFile     string        `env:"WORKFLOW_ROUTES_FILE"`
	Timeout        time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"30s"`
	ControlWebhook string        `env:"N8N_CONTROL_WEBHOOK"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if err := c.DB.Validate(); err != nil {
		return err
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}
	if c.Session.TTL <= 0 || c.Session.RememberTTL <= 0 {
		return fmt.Errorf("SESSION_TTL and SESSION_REMEMBER_TTL must be positive")
	}
	if _, err := ParseSameSite(c.Session.CookieSite); err != nil {
		return err
	}
	if c.CampaignLimit < 1 {
		return fmt.Errorf("NUMBER_OF_CAMPAIGNS must be at least 1, got %d", c.CampaignLimit)
	}
	return nil
}

func (c *DBConfig) Validate() error {
	switch c.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres, mysql or sqlite, got %q", c.Driver)
	}
	if c.Driver != "sqlite" && c.Name == "" {
		return fmt.Errorf("DB_NAME must not be empty")
	}
	if c.Port == "" {
		c.Port = c.DefaultPort()
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("DB_POOL_SIZE must be positive, got %d", c.PoolSize)
	}
	if c.QueueLimit < 0 {
		return fmt.Errorf("DB_QUEUE_LIMIT must not be negative, got %d", c.QueueLimit)
	}
	return nil
}

// DefaultPort is the driver's usual port, used when DB_PORT is unset.
func (c *DBConfig) DefaultPort() string {
	switch c.Driver {
	case "mysql":
		return "3306"
	case "postgres":
		return "5432"
	}
	return ""
}

// HostPort joins DB_HOST with DB_PORT or the driver's default port.
func (c *DBConfig) HostPort() string {
	port := c.Port
	if port == "" {
		port = c.DefaultPort()
	}
	return net.JoinHostPort(c.Host, port)
}

// LoadDB reads only the database settings, for tools that never serve HTTP.
func LoadDB() (*DBConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &DBConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func ParseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("COOKIE_SAME_SITE must be lax, strict or none, got %q", v)
}

// WorkflowRoutes merges the two env-configured webhooks with the optional
// routes file. Entries from the file win over the env pair.
func (c *Config) WorkflowRoutes() (map[string]string, error) {
	routes := map[string]string{}
	if c.Workflow.Webhook1 != "" {
		routes[c.Workflow.Kind1] = c.Workflow.Webhook1
	}
	if c.Workflow.Webhook2 != "" {
		routes[c.Workflow.Kind2] = c.Workflow.Webhook2
	}

	if c.Workflow.RoutesFile == "" {
		return routes, nil
	}

	data, err := os.ReadFile(c.Workflow.RoutesFile)
	if err != nil {
		return nil, fmt.Errorf("read workflow routes: %w", err)
	}
	var fromFile map[string]string
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("decode workflow routes %s: %w", c.Workflow.RoutesFile, err)
	}
	for kind, url := range fromFile {
		if strings.TrimSpace(url) == "" {
			return nil, fmt.Errorf("workflow route %q has an empty url", kind)
		}
		routes[kind] = url
	}
	return routes, nil
}
