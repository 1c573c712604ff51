package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB
	DefaultFontSize    = 10.0
	DefaultDatabase    = "registrofill.db"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ExtractionConfig selects and configures the document extraction backend.
type ExtractionConfig struct {
	Provider       string
	AnthropicKey   string
	AnthropicModel string
}

// Config holds all configuration for the registry fill server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document pipeline configuration
	TemplateDir  string
	OutputDir    string
	DatabasePath string
	MaxFileSize  int64 // Maximum input PDF size in bytes
	FontSize     float64

	// Extraction backend
	Extraction ExtractionConfig

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:         ModeStdio, // Default to stdio mode for MCP compatibility
		Host:         DefaultHost,
		Port:         DefaultPort,
		TemplateDir:  filepath.Join(currentDir, "templates"),
		OutputDir:    filepath.Join(currentDir, "output"),
		DatabasePath: filepath.Join(currentDir, DefaultDatabase),
		MaxFileSize:  DefaultMaxFileSize,
		FontSize:     DefaultFontSize,
		Extraction: ExtractionConfig{
			Provider: "anthropic",
		},
		Version:    "1.0.0",
		ServerName: "registrofill",
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	for _, dir := range []*string{&cfg.TemplateDir, &cfg.OutputDir, &cfg.DatabasePath} {
		if *dir == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*dir); err == nil {
			*dir = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("REGISTROFILL")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("templatedir", cfg.TemplateDir)
	viper.SetDefault("outputdir", cfg.OutputDir)
	viper.SetDefault("database", cfg.DatabasePath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("logformat", cfg.LogFormat)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("fontsize", cfg.FontSize)
	viper.SetDefault("provider", cfg.Extraction.Provider)
	viper.SetDefault("anthropic_model", cfg.Extraction.AnthropicModel)
	viper.SetDefault("anthropic_api_key", "")
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("templatedir", cfg.TemplateDir, "Directory containing fillable PDF templates")
	pflag.String("outputdir", cfg.OutputDir, "Directory where filled PDFs are written")
	pflag.String("database", cfg.DatabasePath, "Path to the SQLite database file")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("logformat", cfg.LogFormat, "Log format (json, console)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum input PDF size in bytes")
	pflag.Float64("fontsize", cfg.FontSize, "Font size forced onto filled form fields")
	pflag.String("provider", cfg.Extraction.Provider, "Extraction provider (anthropic)")
	pflag.String("anthropic-model", cfg.Extraction.AnthropicModel, "Anthropic model for document extraction")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("templatedir", pflag.Lookup("templatedir"))
	_ = viper.BindPFlag("outputdir", pflag.Lookup("outputdir"))
	_ = viper.BindPFlag("database", pflag.Lookup("database"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("logformat", pflag.Lookup("logformat"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("fontsize", pflag.Lookup("fontsize"))
	_ = viper.BindPFlag("provider", pflag.Lookup("provider"))
	_ = viper.BindPFlag("anthropic_model", pflag.Lookup("anthropic-model"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nregistrofill - extracts civil registry data and fills PDF templates over MCP\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          # stdio mode (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --templatedir=/srv/templates             # stdio mode, custom templates\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # HTTP server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_MODE               Server mode\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_HOST               Server host\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_PORT               Server port\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_TEMPLATEDIR        Template directory\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_OUTPUTDIR          Output directory\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_DATABASE           SQLite database path\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_LOGLEVEL           Log level\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_LOGFORMAT          Log format\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_MAXFILESIZE        Maximum input PDF size\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_PROVIDER           Extraction provider\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_ANTHROPIC_API_KEY  Anthropic API key\n")
		fmt.Fprintf(os.Stderr, "  REGISTROFILL_ANTHROPIC_MODEL    Anthropic model\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.TemplateDir = viper.GetString("templatedir")
	cfg.OutputDir = viper.GetString("outputdir")
	cfg.DatabasePath = viper.GetString("database")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.LogFormat = viper.GetString("logformat")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.FontSize = viper.GetFloat64("fontsize")
	cfg.Extraction.Provider = viper.GetString("provider")
	cfg.Extraction.AnthropicModel = viper.GetString("anthropic_model")
	cfg.Extraction.AnthropicKey = viper.GetString("anthropic_api_key")
	if cfg.Extraction.AnthropicKey == "" {
		cfg.Extraction.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.TemplateDir == "" {
		return errors.New("template directory cannot be empty")
	}
	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	if c.DatabasePath == "" {
		return errors.New("database path cannot be empty")
	}

	// Create the working directories if they do not exist yet
	for _, dir := range []string{c.TemplateDir, c.OutputDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access directory %s: %w", dir, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.FontSize <= 0 {
		return errors.New("font size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (must be 'json' or 'console')", c.LogFormat)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, TemplateDir: %s, OutputDir: %s, Database: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.TemplateDir, c.OutputDir, c.DatabasePath, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
