package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// validConfig returns a configuration that passes validation inside dir
func validConfig(dir string) *Config {
	cfg := DefaultConfig()
	cfg.StorePath = filepath.Join(dir, "state", "sign-form.db")
	cfg.OutputDir = filepath.Join(dir, "out")
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != ModeCLI {
		t.Errorf("DefaultConfig() Mode = %v, want %v", cfg.Mode, ModeCLI)
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("DefaultConfig() Store = %v, want %v", cfg.Store, StoreSQLite)
	}
	if cfg.Format != FormatDOCX {
		t.Errorf("DefaultConfig() Format = %v, want %v", cfg.Format, FormatDOCX)
	}
	if cfg.AssetRoot != DefaultAssetRoot {
		t.Errorf("DefaultConfig() AssetRoot = %v, want %v", cfg.AssetRoot, DefaultAssetRoot)
	}
	if !cfg.MergeFragments || !cfg.SynthesizeSignature || !cfg.Strict {
		t.Error("DefaultConfig() resolver strategies should all be enabled")
	}
	if cfg.SignatureWidth != 80 || cfg.SignatureHeight != 80 {
		t.Errorf("DefaultConfig() signature size = %dx%d, want 80x80", cfg.SignatureWidth, cfg.SignatureHeight)
	}
	if cfg.CanvasWidth != 800 || cfg.CanvasHeight != 300 {
		t.Errorf("DefaultConfig() canvas size = %dx%d, want 800x300", cfg.CanvasWidth, cfg.CanvasHeight)
	}
	if cfg.MaxTemplateSize != 20*1024*1024 {
		t.Errorf("DefaultConfig() MaxTemplateSize = %v, want %v", cfg.MaxTemplateSize, 20*1024*1024)
	}
	if cfg.StorePath == "" {
		t.Error("DefaultConfig() StorePath should not be empty")
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "valid stdio memory", modify: func(c *Config) { c.Mode = ModeStdio; c.Store = StoreMemory; c.StorePath = "" }},
		{name: "valid pdf", modify: func(c *Config) { c.Format = FormatPDF }},
		{name: "invalid mode", modify: func(c *Config) { c.Mode = "server" }, wantErr: "mode"},
		{name: "invalid store", modify: func(c *Config) { c.Store = "redis" }, wantErr: "invalid store"},
		{name: "sqlite without path", modify: func(c *Config) { c.StorePath = "" }, wantErr: "store path"},
		{name: "empty asset root", modify: func(c *Config) { c.AssetRoot = "" }, wantErr: "asset root"},
		{name: "invalid format", modify: func(c *Config) { c.Format = "odt" }, wantErr: "invalid format"},
		{name: "empty output dir", modify: func(c *Config) { c.OutputDir = "" }, wantErr: "output directory"},
		{name: "missing font", modify: func(c *Config) { c.FontPath = filepath.Join(dir, "nope.ttf") }, wantErr: "font"},
		{name: "zero template size", modify: func(c *Config) { c.MaxTemplateSize = 0 }, wantErr: "template size"},
		{name: "zero signature size", modify: func(c *Config) { c.SignatureWidth = 0 }, wantErr: "signature size"},
		{name: "negative canvas", modify: func(c *Config) { c.CanvasHeight = -1 }, wantErr: "canvas size"},
		{name: "invalid log level", modify: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(dir)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Config.Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(dir)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error: %v", err)
	}

	for _, want := range []string{cfg.OutputDir, filepath.Dir(cfg.StorePath)} {
		info, err := os.Stat(want)
		if err != nil {
			t.Errorf("directory %s should have been created: %v", want, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", want)
		}
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		logLevel string
		want     bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigIsStdioMode(t *testing.T) {
	if !(&Config{Mode: ModeStdio}).IsStdioMode() {
		t.Error("IsStdioMode() should be true for stdio mode")
	}
	if (&Config{Mode: ModeCLI}).IsStdioMode() {
		t.Error("IsStdioMode() should be false for cli mode")
	}
}

func TestConfigString(t *testing.T) {
	cfg := validConfig(t.TempDir())
	got := cfg.String()
	for _, want := range []string{"Mode: cli", "Store: sqlite", "Format: docx", "LogLevel: info"} {
		if !strings.Contains(got, want) {
			t.Errorf("Config.String() = %q, missing %q", got, want)
		}
	}
}
