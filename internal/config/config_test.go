package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "stdio", cfg.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "inkswift-mcp", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 180.0, cfg.FieldWidth)
	assert.Equal(t, 60.0, cfg.FieldHeight)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.PDFDirectory)
}

func validConfig(dir string) *Config {
	return &Config{
		Mode:         "stdio",
		Host:         "127.0.0.1",
		Port:         8080,
		PDFDirectory: dir,
		FieldWidth:   180,
		FieldHeight:  60,
		LogLevel:     "info",
		MaxFileSize:  1024,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid config - stdio mode", func(*Config) {}, false},
		{"valid config - server mode", func(c *Config) { c.Mode = "server" }, false},
		{"invalid mode", func(c *Config) { c.Mode = "invalid" }, true},
		{"invalid port - too low (server mode)", func(c *Config) { c.Mode, c.Port = "server", 0 }, true},
		{"invalid port - too high (server mode)", func(c *Config) { c.Mode, c.Port = "server", 70000 }, true},
		{"invalid port ignored in stdio mode", func(c *Config) { c.Port = 0 }, false},
		{"empty PDF directory", func(c *Config) { c.PDFDirectory = "" }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "invalid" }, true},
		{"invalid max file size", func(c *Config) { c.MaxFileSize = 0 }, true},
		{"zero field width", func(c *Config) { c.FieldWidth = 0 }, true},
		{"negative field height", func(c *Config) { c.FieldHeight = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t.TempDir())
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidate_CreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/docs"
	cfg := validConfig(dir)

	assert.NoError(t, cfg.Validate())
	assert.DirExists(t, dir)
}

func TestConfigFieldDefaults(t *testing.T) {
	cfg := validConfig(t.TempDir())
	cfg.FieldWidth = 210
	cfg.FieldHeight = 70

	d := cfg.FieldDefaults()
	assert.Equal(t, 210.0, d.Width)
	assert.Equal(t, 70.0, d.Height)
	assert.Equal(t, 1, d.Page)
	assert.Equal(t, 50.0, d.X)
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "192.168.1.1", Port: 9090}
	assert.Equal(t, "192.168.1.1:9090", cfg.Address())
}

func TestConfigIsDebug(t *testing.T) {
	for level, want := range map[string]bool{"debug": true, "info": false, "warn": false, "error": false} {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, want, cfg.IsDebug(), level)
	}
}

func TestConfigModes(t *testing.T) {
	cfg := &Config{Mode: ModeServer}
	assert.True(t, cfg.IsServerMode())
	assert.False(t, cfg.IsStdioMode())

	cfg.Mode = ModeStdio
	assert.True(t, cfg.IsStdioMode())
	assert.False(t, cfg.IsServerMode())
}

func TestConfigString(t *testing.T) {
	s := validConfig("/srv/docs").String()
	assert.True(t, strings.HasPrefix(s, "Config{Mode: stdio"))
	assert.Contains(t, s, "PDFDirectory: /srv/docs")
	assert.Contains(t, s, "FieldSize: 180x60")
}
