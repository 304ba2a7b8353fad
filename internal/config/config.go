package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env     string        `mapstructure:"env"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Alert   AlertConfig   `mapstructure:"alert"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Server  ServerConfig  `mapstructure:"server"`
}

type AgentConfig struct {
	Name string `mapstructure:"name"`
}

type MonitorConfig struct {
	BaseDir          string        `mapstructure:"base_dir"`
	CredentialsFile  string        `mapstructure:"credentials_file"`
	LogFile          string        `mapstructure:"log_file"`
	ActivityLogs     []string      `mapstructure:"activity_logs"`
	StaleAfter       time.Duration `mapstructure:"stale_after"`
	Interval         time.Duration `mapstructure:"interval"`
	ProcessMarker    string        `mapstructure:"process_marker"`
	ProcessExclude   []string      `mapstructure:"process_exclude"`
	ProcessTimeout   time.Duration `mapstructure:"process_timeout"`
	MinAuthTokenLen  int           `mapstructure:"min_auth_token_len"`
	MinCT0Len        int           `mapstructure:"min_ct0_len"`
	WatchCredentials bool          `mapstructure:"watch_credentials"`
}

type AlertConfig struct {
	WebhookEnv []string      `mapstructure:"webhook_env"`
	Message    string        `mapstructure:"message"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Cooldown   time.Duration `mapstructure:"cooldown"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type ServerConfig struct {
	HealthPort string `mapstructure:"health_port"`
}

// DefaultAlertMessage is posted to the webhook on a failing cycle.
const DefaultAlertMessage = "🚨 Twitter agent cookies need refreshing!\nPlease update the cookies manually."

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing priority. An empty path searches ./config and .
// for local.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("local")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Monitor.Interval <= 0 {
		return nil, fmt.Errorf("monitor.interval must be positive, got %s", cfg.Monitor.Interval)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("agent.name", "twitter-agent")

	// Monitor defaults
	v.SetDefault("monitor.base_dir", ".")
	v.SetDefault("monitor.credentials_file", ".env")
	v.SetDefault("monitor.log_file", "logs/simple-monitor.log")
	v.SetDefault("monitor.activity_logs", []string{
		"logs/eliza.log",
		"logs/twitter.log",
		"eliza.log",
		"twitter.log",
	})
	v.SetDefault("monitor.stale_after", "30m")
	v.SetDefault("monitor.interval", "10m")
	v.SetDefault("monitor.process_marker", "eliza")
	v.SetDefault("monitor.process_exclude", []string{"grep"})
	v.SetDefault("monitor.process_timeout", "10s")
	v.SetDefault("monitor.min_auth_token_len", 30)
	v.SetDefault("monitor.min_ct0_len", 50)
	v.SetDefault("monitor.watch_credentials", false)

	// Alert defaults
	v.SetDefault("alert.webhook_env", []string{"DISCORD_WEBHOOK_URL", "SLACK_WEBHOOK_URL"})
	v.SetDefault("alert.message", DefaultAlertMessage)
	v.SetDefault("alert.timeout", "10s")
	v.SetDefault("alert.cooldown", "0s")

	// Kafka defaults: empty broker list disables the report sink
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "monitor-reports")

	// Server defaults: empty port disables the status server
	v.SetDefault("server.health_port", "")
}

// Path resolves p against the monitor base directory unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Monitor.BaseDir, p)
}

func (c *Config) CredentialsPath() string {
	return c.Path(c.Monitor.CredentialsFile)
}

func (c *Config) LogPath() string {
	return c.Path(c.Monitor.LogFile)
}

func (c *Config) ActivityLogPaths() []string {
	paths := make([]string, 0, len(c.Monitor.ActivityLogs))
	for _, p := range c.Monitor.ActivityLogs {
		paths = append(paths, c.Path(p))
	}
	return paths
}
