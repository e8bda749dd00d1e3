package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := NewConfig("/home/user/.local/share/postify")
	original.APIURL = "https://postify.example.com/api"
	original.RequestTimeout = Duration{30 * time.Second}
	original.LogLevel = "debug"
	original.Feed.MaxImageBytes = 1024
	original.Server.AllowedOrigins = []string{"http://localhost:5173"}

	var buf bytes.Buffer
	m := &Manager{}
	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), `request_timeout = "30s"`) {
		t.Errorf("request_timeout not written as a duration string:\n%s", buf.String())
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.APIURL != original.APIURL {
		t.Errorf("APIURL = %q, want %q", got.APIURL, original.APIURL)
	}
	if got.RequestTimeout.Duration != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", got.RequestTimeout)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", got.LogLevel)
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if got.Feed.MaxImageBytes != 1024 {
		t.Errorf("Feed.MaxImageBytes = %d, want 1024", got.Feed.MaxImageBytes)
	}
	if len(got.Server.AllowedOrigins) != 1 {
		t.Errorf("Server.AllowedOrigins = %v", got.Server.AllowedOrigins)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/postify")

	checks := map[string][2]string{
		"APIURL":                    {cfg.APIURL, DefaultAPIURL},
		"LogDir":                    {cfg.LogDir, "/data/postify/log"},
		"Database.DataDir":          {cfg.Database.DataDir, "/data/postify/db"},
		"Encryption.PublicKeyPath":  {cfg.Encryption.PublicKeyPath, "/data/postify/keys/postify.pub"},
		"Encryption.PrivateKeyPath": {cfg.Encryption.PrivateKeyPath, "/data/postify/keys/postify.key"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "relative api url", modify: func(c *Config) { c.APIURL = "/api" }},
		{name: "non-http api url", modify: func(c *Config) { c.APIURL = "ftp://example.com" }},
		{name: "zero timeout", modify: func(c *Config) { c.RequestTimeout = Duration{} }},
		{name: "unknown log level", modify: func(c *Config) { c.LogLevel = "verbose" }},
		{name: "zero image limit", modify: func(c *Config) { c.Feed.MaxImageBytes = 0 }},
		{name: "image limit above 5 MiB", modify: func(c *Config) { c.Feed.MaxImageBytes = 5*1024*1024 + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(t.TempDir())
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("2m")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Duration != 2*time.Minute {
		t.Errorf("Duration = %v, want 2m", d.Duration)
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("UnmarshalText() expected error for invalid duration")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "postify.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("config file not created: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("config file mode = %o, want 600", perm)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "postify.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})

	t.Run("rejects an invalid config", func(t *testing.T) {
		dir := t.TempDir()
		cfg := NewConfig(dir)
		cfg.APIURL = "nope"
		if err := Init(filepath.Join(dir, "postify.toml"), cfg); err == nil {
			t.Fatal("Init() expected error for invalid config")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "postify.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want memory", got.Database.Type)
		}
		if got.RequestTimeout.Duration != DefaultRequestTimeout {
			t.Errorf("RequestTimeout = %v, want %v", got.RequestTimeout, DefaultRequestTimeout)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/postify.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
