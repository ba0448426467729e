package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config represents the structure of the configuration file
type Config struct {
	Version       string               `mapstructure:"version"`
	Theme         string               `mapstructure:"theme"`
	OutputFormat  string               `mapstructure:"output_format"`
	StorageDir    string               `mapstructure:"storage_dir"`
	CacheDir      string               `mapstructure:"cache_dir"`
	EnableCache   bool                 `mapstructure:"enable_cache"`
	StaleAfter    time.Duration        `mapstructure:"stale_after"`
	Debounce      time.Duration        `mapstructure:"debounce"`
	MetricsAddr   string               `mapstructure:"metrics_addr"`
	Log           *LogConfig           `mapstructure:"log"`
	Chunk         *ChunkConfig         `mapstructure:"chunk"`
	SemanticIndex *SemanticIndexConfig `mapstructure:"semantic_index"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ChunkConfig configures how file content is windowed for the semantic index.
type ChunkConfig struct {
	MaxSize int `mapstructure:"max_size"`
	Overlap int `mapstructure:"overlap"`
}

// SemanticIndexConfig selects the embedding provider behind the semantic index.
type SemanticIndexConfig struct {
	Provider   string `mapstructure:"provider"` // hash, ollama or none
	PersistDir string `mapstructure:"persist_dir"`
	Results    int    `mapstructure:"results"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:      "0.4.0",
	Theme:        "dracula",
	OutputFormat: "yaml",
	EnableCache:  true,
	StaleAfter:   24 * time.Hour,
	Debounce:     2 * time.Second,
	Log: &LogConfig{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	},
	Chunk: &ChunkConfig{
		MaxSize: 1500,
		Overlap: 200,
	},
	SemanticIndex: &SemanticIndexConfig{
		Provider: "hash",
		Results:  10,
		BaseURL:  "http://localhost:11434/api",
		Model:    "nomic-embed-text",
	},
}

const envPrefix = "PROJCTX"

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	} else if path := findConfigFile(cwd); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// CLI flags override file and environment values
	if rootCmd != nil {
		bindFlags(v, rootCmd)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := resolveDirectories(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// findConfigFile returns the first projctx-config file in cwd, or "".
func findConfigFile(cwd string) string {
	for _, name := range []string{"projctx-config.yml", "projctx-config.yaml", "projctx-config.json"} {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// resolveDirectories fills in storage and cache directories under the user's home.
func resolveDirectories(config *Config) error {
	if config.StorageDir != "" && config.CacheDir != "" {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}
	base := filepath.Join(home, ".projctx")

	if config.StorageDir == "" {
		config.StorageDir = filepath.Join(base, "contexts")
	}
	if config.CacheDir == "" {
		config.CacheDir = filepath.Join(base, "cache")
	}
	if config.SemanticIndex != nil && config.SemanticIndex.PersistDir == "" && config.SemanticIndex.Provider == "ollama" {
		config.SemanticIndex.PersistDir = filepath.Join(base, "index")
	}
	return nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("output_format", DefaultConfig.OutputFormat)
	v.SetDefault("storage_dir", "")
	v.SetDefault("cache_dir", "")
	v.SetDefault("enable_cache", DefaultConfig.EnableCache)
	v.SetDefault("stale_after", DefaultConfig.StaleAfter)
	v.SetDefault("debounce", DefaultConfig.Debounce)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log.level", DefaultConfig.Log.Level)
	v.SetDefault("log.format", DefaultConfig.Log.Format)
	v.SetDefault("log.output", DefaultConfig.Log.Output)
	v.SetDefault("chunk.max_size", DefaultConfig.Chunk.MaxSize)
	v.SetDefault("chunk.overlap", DefaultConfig.Chunk.Overlap)
	v.SetDefault("semantic_index.provider", DefaultConfig.SemanticIndex.Provider)
	v.SetDefault("semantic_index.persist_dir", "")
	v.SetDefault("semantic_index.results", DefaultConfig.SemanticIndex.Results)
	v.SetDefault("semantic_index.base_url", DefaultConfig.SemanticIndex.BaseURL)
	v.SetDefault("semantic_index.model", DefaultConfig.SemanticIndex.Model)
}

// bindEnv explicitly binds PROJCTX_* environment variables to configuration keys
func bindEnv(v *viper.Viper) {
	keys := []string{
		"theme",
		"output_format",
		"storage_dir",
		"cache_dir",
		"enable_cache",
		"stale_after",
		"debounce",
		"metrics_addr",
		"log.level",
		"log.format",
		"log.output",
		"chunk.max_size",
		"chunk.overlap",
		"semantic_index.provider",
		"semantic_index.persist_dir",
		"semantic_index.results",
		"semantic_index.base_url",
		"semantic_index.model",
	}
	for _, key := range keys {
		_ = v.BindEnv(key, envName(key))
	}
}

// envName maps "semantic_index.base_url" to "PROJCTX_SEMANTIC_INDEX_BASE_URL".
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag("theme", flags.Lookup("theme"))
	_ = v.BindPFlag("output_format", flags.Lookup("output"))
	_ = v.BindPFlag("storage_dir", flags.Lookup("storage_dir"))
	_ = v.BindPFlag("cache_dir", flags.Lookup("cache_dir"))
	_ = v.BindPFlag("enable_cache", flags.Lookup("enable_cache"))
	_ = v.BindPFlag("stale_after", flags.Lookup("stale_after"))
	_ = v.BindPFlag("debounce", flags.Lookup("debounce"))
	_ = v.BindPFlag("metrics_addr", flags.Lookup("metrics_addr"))
	_ = v.BindPFlag("log.level", flags.Lookup("log_level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log_format"))
	_ = v.BindPFlag("semantic_index.provider", flags.Lookup("semantic_provider"))
	_ = v.BindPFlag("semantic_index.base_url", flags.Lookup("ollama_base_url"))
	_ = v.BindPFlag("semantic_index.model", flags.Lookup("ollama_model"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set the highlighting theme for command output. (e.g., 'dracula', 'monokai', 'github')")
	rootCmd.PersistentFlags().StringP("output", "o", DefaultConfig.OutputFormat, "Output format for command results: 'yaml' or 'json'")

	// Storage configuration
	rootCmd.PersistentFlags().String("storage_dir", "", "Directory holding one context document per project (default ~/.projctx/contexts)")
	rootCmd.PersistentFlags().String("cache_dir", "", "Directory holding the file analysis cache (default ~/.projctx/cache)")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Enable or disable the file analysis cache")

	// Freshness configuration
	rootCmd.PersistentFlags().Duration("stale_after", DefaultConfig.StaleAfter, "Age after which a stored snapshot is rescanned on read")
	rootCmd.PersistentFlags().Duration("debounce", DefaultConfig.Debounce, "Quiet period after the last filesystem event before the watcher reacts")

	// Observability
	rootCmd.PersistentFlags().String("metrics_addr", "", "Serve Prometheus metrics on this address (e.g., ':9090'); disabled when empty")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.Log.Level, "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log_format", DefaultConfig.Log.Format, "Log format: console or json")

	// Semantic index
	rootCmd.PersistentFlags().String("semantic_provider", DefaultConfig.SemanticIndex.Provider, "Embedding provider for semantic search: 'hash', 'ollama' or 'none'")
	rootCmd.PersistentFlags().String("ollama_base_url", DefaultConfig.SemanticIndex.BaseURL, "Base URL of the Ollama API used for embeddings")
	rootCmd.PersistentFlags().String("ollama_model", DefaultConfig.SemanticIndex.Model, "Ollama embedding model name")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}
