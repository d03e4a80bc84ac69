package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/formsense/formsense/internal/mapper"
)

const (
	// Provider constants
	ProviderChat       = "chat"
	ProviderCompletion = "completion"

	// Default values
	DefaultProvider           = ProviderCompletion
	DefaultChatEndpoint       = "https://api.openai.com/v1/chat/completions"
	DefaultChatModel          = "gpt-4o-mini"
	DefaultCompletionEndpoint = "http://127.0.0.1:11434/api/generate"
	DefaultCompletionModel    = "llama3.1"
	DefaultLogLevel           = "info"
	DefaultMaxFileSize        = 100 * 1024 * 1024 // 100MB
)

// Config holds all configuration for the form analysis tools
type Config struct {
	// Inference provider configuration
	Provider           string // "chat" or "completion"
	ChatEndpoint       string
	ChatModel          string
	ChatAPIKey         string
	CompletionEndpoint string
	CompletionModel    string

	// Application configuration
	Version     string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Provider:           DefaultProvider,
		ChatEndpoint:       DefaultChatEndpoint,
		ChatModel:          DefaultChatModel,
		CompletionEndpoint: DefaultCompletionEndpoint,
		CompletionModel:    DefaultCompletionModel,
		Version:            "1.0.0",
		LogLevel:           DefaultLogLevel,
		MaxFileSize:        DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns the configuration
// together with the remaining positional arguments.
func LoadFromFlags(args []string) (*Config, []string, error) {
	cfg := DefaultConfig()

	flags := pflag.NewFlagSet("formsense", pflag.ContinueOnError)
	v := viper.New()

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(flags, cfg)
	setupUsageMessage(flags)

	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	if err := bindFlagsToViper(v, flags); err != nil {
		return nil, nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, flags.Args(), nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix("FORMSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("chat-endpoint", cfg.ChatEndpoint)
	v.SetDefault("chat-model", cfg.ChatModel)
	v.SetDefault("chat-api-key", cfg.ChatAPIKey)
	v.SetDefault("completion-endpoint", cfg.CompletionEndpoint)
	v.SetDefault("completion-model", cfg.CompletionModel)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("provider", cfg.Provider, "Inference provider: 'chat' for a chat-completions API, 'completion' for a local generate API")
	flags.String("chat-endpoint", cfg.ChatEndpoint, "Chat-completions endpoint URL")
	flags.String("chat-model", cfg.ChatModel, "Chat model identifier")
	flags.String("chat-api-key", cfg.ChatAPIKey, "Bearer token for the chat endpoint")
	flags.String("completion-endpoint", cfg.CompletionEndpoint, "Completion endpoint URL")
	flags.String("completion-model", cfg.CompletionModel, "Completion model identifier")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) error {
	return v.BindPFlags(flags)
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet) {
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nformsense - form field detection, creation and mapping for static PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  analyze <file.pdf>     Detect fillable areas in a static PDF\n")
		fmt.Fprintf(os.Stderr, "  synthesize <in> <out>  Create interactive fields from the detected areas\n")
		fmt.Fprintf(os.Stderr, "  backfill <file.pdf>    Derive labels for existing interactive fields\n")
		fmt.Fprintf(os.Stderr, "  map <file.pdf> <data.json>  Match data values to the form's fields\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FORMSENSE_PROVIDER             Inference provider\n")
		fmt.Fprintf(os.Stderr, "  FORMSENSE_CHAT_ENDPOINT        Chat endpoint URL\n")
		fmt.Fprintf(os.Stderr, "  FORMSENSE_CHAT_MODEL           Chat model\n")
		fmt.Fprintf(os.Stderr, "  FORMSENSE_CHAT_API_KEY         Chat bearer token\n")
		fmt.Fprintf(os.Stderr, "  FORMSENSE_COMPLETION_ENDPOINT  Completion endpoint URL\n")
		fmt.Fprintf(os.Stderr, "  FORMSENSE_COMPLETION_MODEL     Completion model\n")
		fmt.Fprintf(os.Stderr, "  FORMSENSE_LOGLEVEL             Log level\n")
		fmt.Fprintf(os.Stderr, "  FORMSENSE_MAXFILESIZE          Maximum file size\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Provider = v.GetString("provider")
	cfg.ChatEndpoint = v.GetString("chat-endpoint")
	cfg.ChatModel = v.GetString("chat-model")
	cfg.ChatAPIKey = v.GetString("chat-api-key")
	cfg.CompletionEndpoint = v.GetString("completion-endpoint")
	cfg.CompletionModel = v.GetString("completion-model")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Provider != ProviderChat && c.Provider != ProviderCompletion {
		return errors.New("provider must be either 'chat' or 'completion'")
	}

	if c.Provider == ProviderChat && c.ChatEndpoint == "" {
		return errors.New("chat endpoint cannot be empty")
	}
	if c.Provider == ProviderCompletion && c.CompletionEndpoint == "" {
		return errors.New("completion endpoint cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
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

	return nil
}

// MapperSettings returns the inference settings for one mapping invocation.
// Callers read these fresh on every run so configuration changes are picked
// up without a restart.
func (c *Config) MapperSettings() (mapper.Settings, error) {
	if err := c.Validate(); err != nil {
		return mapper.Settings{}, err
	}
	return mapper.Settings{
		Provider:           c.Provider,
		ChatEndpoint:       c.ChatEndpoint,
		ChatModel:          c.ChatModel,
		ChatAPIKey:         c.ChatAPIKey,
		CompletionEndpoint: c.CompletionEndpoint,
		CompletionModel:    c.CompletionModel,
	}, nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Provider: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Provider, c.LogLevel, c.MaxFileSize)
}
