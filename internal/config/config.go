package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Groups    GroupsConfig    `mapstructure:"groups"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Transport TransportConfig `mapstructure:"transport"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GroupsConfig holds the chat groups being tracked
type GroupsConfig struct {
	Allowed      []string `mapstructure:"allowed"`
	Confirmation string   `mapstructure:"confirmation"`
}

// PathsConfig holds the filesystem layout
type PathsConfig struct {
	DataDir           string `mapstructure:"data_dir"`
	MediaDir          string `mapstructure:"media_dir"`
	LogsDir           string `mapstructure:"logs_dir"`
	ReportJSONDir     string `mapstructure:"report_json_dir"`
	ReportHTMLDir     string `mapstructure:"report_html_dir"`
	ConfirmationsFile string `mapstructure:"confirmations_file"`
	ReturnsFile       string `mapstructure:"returns_file"`
}

// TransportConfig holds the chat transport integration settings
type TransportConfig struct {
	MediaURL string        `mapstructure:"media_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Group defaults
	viper.SetDefault("groups.allowed", []string{"Entra/sale-bodega 55", "Ventas 55"})
	viper.SetDefault("groups.confirmation", "Entra/sale-bodega 55")

	// Path defaults
	viper.SetDefault("paths.data_dir", "data")
	viper.SetDefault("paths.media_dir", "data/media")
	viper.SetDefault("paths.logs_dir", "data/logs")
	viper.SetDefault("paths.report_json_dir", "data/reportes_json")
	viper.SetDefault("paths.report_html_dir", "data/reportes_html")
	viper.SetDefault("paths.confirmations_file", "data/confirmaciones.json")
	viper.SetDefault("paths.returns_file", "data/devoluciones.json")

	// Transport defaults
	viper.SetDefault("transport.media_url", "http://127.0.0.1:3010/media")
	viper.SetDefault("transport.timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/fototrack.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("server.host", "FOTOTRACK_HOST")
	viper.BindEnv("server.port", "FOTOTRACK_PORT")
	viper.BindEnv("paths.data_dir", "FOTOTRACK_DATA_DIR")
	viper.BindEnv("transport.media_url", "FOTOTRACK_MEDIA_URL")
	viper.BindEnv("database.path", "FOTOTRACK_DB_PATH")
	viper.BindEnv("logger.level", "FOTOTRACK_LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if len(c.Groups.Allowed) == 0 {
		return fmt.Errorf("groups.allowed must not be empty")
	}
	if c.Groups.Confirmation == "" {
		return fmt.Errorf("groups.confirmation is required")
	}
	confirmationAllowed := false
	for _, g := range c.Groups.Allowed {
		if g == c.Groups.Confirmation {
			confirmationAllowed = true
			break
		}
	}
	if !confirmationAllowed {
		return fmt.Errorf("groups.confirmation must be listed in groups.allowed")
	}

	if c.Paths.ConfirmationsFile == "" {
		return fmt.Errorf("paths.confirmations_file is required")
	}
	if c.Paths.ReturnsFile == "" {
		return fmt.Errorf("paths.returns_file is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Transport.MediaURL == "" {
		return fmt.Errorf("transport.media_url is required")
	}

	return nil
}
