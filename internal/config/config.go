package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TransportSimulated = "simulated"
	TransportRabbitMQ  = "rabbitmq"

	BackoffFlat        = "flat"
	BackoffExponential = "exponential"
)

type Config struct {
	Channel  ChannelConfig  `yaml:"channel"`
	Display  DisplayConfig  `yaml:"display"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Feed     FeedConfig     `yaml:"feed"`
}

type ChannelConfig struct {
	Transport    string        `yaml:"transport"`
	Endpoint     string        `yaml:"endpoint"`
	ConnectDelay time.Duration `yaml:"connect_delay"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	Backoff      string        `yaml:"backoff"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	// FailFirst makes the simulated transport refuse the first n dials.
	FailFirst int `yaml:"fail_first"`
}

type DisplayConfig struct {
	// Station is recorded as changed_by on status updates
	Station string `yaml:"station"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	Prefetch int    `yaml:"prefetch"`
}

func (c RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + strings.TrimPrefix(c.VHost, "/"),
	}
	return u.String()
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type FeedConfig struct {
	// OrdersFile is a YAML list of orders; empty means the demo set.
	OrdersFile string `yaml:"orders_file"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() Config {
	return Config{
		Channel: ChannelConfig{
			Transport:    TransportSimulated,
			ConnectDelay: time.Second,
			RetryDelay:   5 * time.Second,
			Backoff:      BackoffFlat,
			MaxDelay:     time.Minute,
		},
		Display: DisplayConfig{
			Station: "kds",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
			Prefetch: 10,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "kds",
			Password: "kds",
			Database: "kds",
			SSLMode:  "disable",
		},
		HTTP: HTTPConfig{
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if cfg.Channel.Endpoint == "" && cfg.Channel.Transport == TransportRabbitMQ {
		cfg.Channel.Endpoint = cfg.RabbitMQ.URL()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Channel.Transport {
	case TransportSimulated, TransportRabbitMQ:
	default:
		errs = append(errs, fmt.Errorf("channel.transport must be %q or %q, got %q",
			TransportSimulated, TransportRabbitMQ, c.Channel.Transport))
	}

	switch c.Channel.Backoff {
	case BackoffFlat, BackoffExponential:
	default:
		errs = append(errs, fmt.Errorf("channel.backoff must be %q or %q, got %q",
			BackoffFlat, BackoffExponential, c.Channel.Backoff))
	}

	if c.Channel.RetryDelay <= 0 {
		errs = append(errs, errors.New("channel.retry_delay must be positive"))
	}
	if c.Channel.MaxDelay < c.Channel.RetryDelay {
		errs = append(errs, errors.New("channel.max_delay must not be less than channel.retry_delay"))
	}
	if c.Channel.ConnectDelay < 0 {
		errs = append(errs, errors.New("channel.connect_delay must not be negative"))
	}
	if c.Channel.FailFirst < 0 {
		errs = append(errs, errors.New("channel.fail_first must not be negative"))
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if c.RabbitMQ.Prefetch < 1 {
		errs = append(errs, errors.New("rabbitmq.prefetch must be at least 1"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info or error, got %q", c.Log.Level))
	}

	if strings.TrimSpace(c.Display.Station) == "" {
		errs = append(errs, errors.New("display.station is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
