package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeCLI   = "cli"
	ModeStdio = "stdio"

	// Store backends
	StoreSQLite = "sqlite"
	StoreMemory = "memory"

	// Output formats
	FormatDOCX = "docx"
	FormatPDF  = "pdf"

	// Default values
	DefaultLogLevel        = "info"
	DefaultAssetRoot       = "http://localhost:3000"
	DefaultTemplatePath    = "document/template.docx"
	DefaultOutputDir       = "."
	DefaultMaxTemplateSize = 20 * 1024 * 1024 // 20MB
	DefaultSignatureWidth  = 80
	DefaultSignatureHeight = 80
	DefaultCanvasWidth     = 800
	DefaultCanvasHeight    = 300

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix for environment variables
	EnvPrefix = "SIGN_FORM"
)

// Config holds all configuration for the sign-form tool
type Config struct {
	Mode string // "cli" or "stdio"

	// Storage configuration
	Store     string
	StorePath string

	// Template and output configuration
	AssetRoot       string
	TemplatePath    string
	OutputDir       string
	Format          string
	FontPath        string
	MaxTemplateSize int64

	// Resolver strategies
	MergeFragments      bool
	SynthesizeSignature bool
	Strict              bool

	// Signature geometry in pixels
	SignatureWidth  int
	SignatureHeight int
	CanvasWidth     int
	CanvasHeight    int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	ConfigFile string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	storePath := "sign-form.db"
	if dir, err := os.UserConfigDir(); err == nil {
		storePath = filepath.Join(dir, "sign-form", "sign-form.db")
	}

	return &Config{
		Mode:                ModeCLI,
		Store:               StoreSQLite,
		StorePath:           storePath,
		AssetRoot:           DefaultAssetRoot,
		TemplatePath:        DefaultTemplatePath,
		OutputDir:           DefaultOutputDir,
		Format:              FormatDOCX,
		MaxTemplateSize:     DefaultMaxTemplateSize,
		MergeFragments:      true,
		SynthesizeSignature: true,
		Strict:              true,
		SignatureWidth:      DefaultSignatureWidth,
		SignatureHeight:     DefaultSignatureHeight,
		CanvasWidth:         DefaultCanvasWidth,
		CanvasHeight:        DefaultCanvasHeight,
		Version:             "1.0.0",
		ServerName:          "sign-form",
		LogLevel:            DefaultLogLevel,
	}
}

// DefineFlags registers every configuration flag on fs
func DefineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("config", "", "Configuration file (yaml, json or toml)")
	fs.String("store", cfg.Store, "Storage backend: 'sqlite' or 'memory'")
	fs.String("store-path", cfg.StorePath, "SQLite database file (sqlite store only)")
	fs.String("asset-root", cfg.AssetRoot, "Asset root: http(s) URL or local directory holding the template")
	fs.String("template-path", cfg.TemplatePath, "Template location relative to the asset root")
	fs.String("output-dir", cfg.OutputDir, "Directory generated documents are written to")
	fs.String("format", cfg.Format, "Document format: 'docx' or 'pdf'")
	fs.String("font", cfg.FontPath, "TrueType font for PDF text (needed for Hangul)")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("max-template-size", cfg.MaxTemplateSize, "Maximum template size in bytes")
	fs.Bool("merge-fragments", cfg.MergeFragments, "Join placeholders split across text fragments")
	fs.Bool("synthesize-signature", cfg.SynthesizeSignature, "Insert a text token for an attribute-only {{signature}}")
	fs.Bool("strict", cfg.Strict, "Fail on placeholders without data")
	fs.Int("signature-width", cfg.SignatureWidth, "Width of the embedded signature in pixels")
	fs.Int("signature-height", cfg.SignatureHeight, "Height of the embedded signature in pixels")
	fs.Int("canvas-width", cfg.CanvasWidth, "Width of the drawing canvas in pixels")
	fs.Int("canvas-height", cfg.CanvasHeight, "Height of the drawing canvas in pixels")
}

var keys = []string{
	"store", "store-path", "asset-root", "template-path", "output-dir", "format", "font",
	"loglevel", "max-template-size", "merge-fragments", "synthesize-signature", "strict",
	"signature-width", "signature-height", "canvas-width", "canvas-height",
}

// Load resolves the configuration from flags, environment and the optional
// config file, in that order of precedence, and validates it.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	bindFlagsToViper(fs)

	if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
		cfg.ConfigFile = f.Value.String()
		viper.SetConfigFile(cfg.ConfigFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfg.ConfigFile, err)
		}
	}

	populateConfigFromViper(cfg)

	if cfg.OutputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDir); err == nil {
			cfg.OutputDir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("store", cfg.Store)
	viper.SetDefault("store-path", cfg.StorePath)
	viper.SetDefault("asset-root", cfg.AssetRoot)
	viper.SetDefault("template-path", cfg.TemplatePath)
	viper.SetDefault("output-dir", cfg.OutputDir)
	viper.SetDefault("format", cfg.Format)
	viper.SetDefault("font", cfg.FontPath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("max-template-size", cfg.MaxTemplateSize)
	viper.SetDefault("merge-fragments", cfg.MergeFragments)
	viper.SetDefault("synthesize-signature", cfg.SynthesizeSignature)
	viper.SetDefault("strict", cfg.Strict)
	viper.SetDefault("signature-width", cfg.SignatureWidth)
	viper.SetDefault("signature-height", cfg.SignatureHeight)
	viper.SetDefault("canvas-width", cfg.CanvasWidth)
	viper.SetDefault("canvas-height", cfg.CanvasHeight)
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(fs *pflag.FlagSet) {
	for _, key := range keys {
		if f := fs.Lookup(key); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Store = viper.GetString("store")
	cfg.StorePath = viper.GetString("store-path")
	cfg.AssetRoot = viper.GetString("asset-root")
	cfg.TemplatePath = viper.GetString("template-path")
	cfg.OutputDir = viper.GetString("output-dir")
	cfg.Format = strings.ToLower(viper.GetString("format"))
	cfg.FontPath = viper.GetString("font")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxTemplateSize = viper.GetInt64("max-template-size")
	cfg.MergeFragments = viper.GetBool("merge-fragments")
	cfg.SynthesizeSignature = viper.GetBool("synthesize-signature")
	cfg.Strict = viper.GetBool("strict")
	cfg.SignatureWidth = viper.GetInt("signature-width")
	cfg.SignatureHeight = viper.GetInt("signature-height")
	cfg.CanvasWidth = viper.GetInt("canvas-width")
	cfg.CanvasHeight = viper.GetInt("canvas-height")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeCLI && c.Mode != ModeStdio {
		return errors.New("mode must be either 'cli' or 'stdio'")
	}

	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.StorePath == "" {
			return errors.New("store path cannot be empty for the sqlite store")
		}
		if err := ensureDir(filepath.Dir(c.StorePath)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid store: %s (must be 'sqlite' or 'memory')", c.Store)
	}

	if c.AssetRoot == "" {
		return errors.New("asset root cannot be empty")
	}

	if c.Format != FormatDOCX && c.Format != FormatPDF {
		return fmt.Errorf("invalid format: %s (must be 'docx' or 'pdf')", c.Format)
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	if err := ensureDir(c.OutputDir); err != nil {
		return err
	}

	if c.FontPath != "" {
		if _, err := os.Stat(c.FontPath); err != nil {
			return fmt.Errorf("cannot access font %s: %w", c.FontPath, err)
		}
	}

	if c.MaxTemplateSize <= 0 {
		return errors.New("maximum template size must be positive")
	}
	if c.SignatureWidth <= 0 || c.SignatureHeight <= 0 {
		return errors.New("signature size must be positive")
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return errors.New("canvas size must be positive")
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

// ensureDir creates dir if it does not exist
func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", dir, err)
	}
	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsStdioMode returns true if running as an MCP stdio server
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Store: %s, StorePath: %s, AssetRoot: %s, OutputDir: %s, Format: %s, LogLevel: %s}",
		c.Mode, c.Store, c.StorePath, c.AssetRoot, c.OutputDir, c.Format, c.LogLevel)
}
