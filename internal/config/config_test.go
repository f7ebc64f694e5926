package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/broady/restroutes/routegen"
	"github.com/broady/restroutes/routegen/provider"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
module = "example.com/graylog/client"

[provider]
kind = "file"
dir = "api"

[shared]
name = "shared"
namespace = "shared/*.yaml"
package = "gen/shared"
router = "NodeAPI"

[[variants]]
name = "server"
namespace = "server/*.yaml"
package = "gen/server"
router = "ServerAPI"

[logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.Module != "example.com/graylog/client" {
		t.Errorf("Module = %q", cfg.Module)
	}
	if cfg.Provider.Kind != provider.KindFile || cfg.Provider.Dir != "api" {
		t.Errorf("Provider = %+v", cfg.Provider)
	}
	shared, variants := cfg.Surfaces()
	if shared.Router != "NodeAPI" || shared.Package != "gen/shared" {
		t.Errorf("shared = %+v", shared)
	}
	if len(variants) != 1 || variants[0].Router != "ServerAPI" {
		t.Errorf("variants = %+v", variants)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should be tolerated: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}

	if cfg.Provider.Kind != provider.KindSource || cfg.Provider.Dir != "." {
		t.Errorf("Provider = %+v", cfg.Provider)
	}
	shared, variants := cfg.Surfaces()
	if shared != routegen.DefaultShared {
		t.Errorf("shared = %+v", shared)
	}
	if len(variants) != len(routegen.DefaultVariants) {
		t.Fatalf("variants = %+v", variants)
	}
	for i, v := range variants {
		if v != routegen.DefaultVariants[i] {
			t.Errorf("variant %d = %+v", i, v)
		}
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{name: "syntax", content: `module = `, wantMsg: "parse config"},
		{name: "unknown field", content: "[provider]\nkinds = \"file\"\n", wantMsg: "kinds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantMsg)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("an explicit missing path should fail")
	}
}

func TestFinalize_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantMsg string
	}{
		{name: "provider kind", cfg: Config{Provider: ProviderConfig{Kind: "reflection"}}, wantMsg: "Provider.Kind"},
		{name: "log level", cfg: Config{Logging: LoggingConfig{Level: "trace"}}, wantMsg: "Logging.Level"},
		{name: "log format", cfg: Config{Logging: LoggingConfig{Format: "xml"}}, wantMsg: "Logging.Format"},
		{
			name:    "incomplete variant",
			cfg:     Config{Shared: surfaceConfig(routegen.DefaultShared), Variants: []SurfaceConfig{{Name: "radio"}}},
			wantMsg: "Variants[0].Router: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize()
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestFinalize_Env(t *testing.T) {
	t.Setenv(EnvModule, "example.com/override")
	t.Setenv(EnvProvider, "file")
	t.Setenv(EnvProviderDir, "descriptors")
	t.Setenv(EnvBuildTags, "integration,graylog")
	t.Setenv(EnvLogLevel, "WARN")
	t.Setenv(EnvLogFormat, "json")

	cfg := &Config{Module: "example.com/file"}
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	if cfg.Module != "example.com/override" {
		t.Errorf("Module = %q", cfg.Module)
	}
	if cfg.Provider.Kind != provider.KindFile || cfg.Provider.Dir != "descriptors" {
		t.Errorf("Provider = %+v", cfg.Provider)
	}
	if strings.Join(cfg.Provider.Tags, " ") != "integration graylog" {
		t.Errorf("Tags = %v", cfg.Provider.Tags)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestConfig_Source(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	src, err := cfg.Source(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*provider.SourceProvider); !ok {
		t.Errorf("default source = %T", src)
	}

	cfg.Provider.Kind = provider.KindFile
	src, err = cfg.Source(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*provider.FileProvider); !ok {
		t.Errorf("file source = %T", src)
	}
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "surface", "server")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"surface":"server"`) {
		t.Errorf("unexpected output %q", out)
	}

	buf.Reset()
	LoggingConfig{Level: "debug", Format: "text"}.NewLogger(&buf).Debug("visible")
	if !strings.Contains(buf.String(), "msg=visible") {
		t.Errorf("text output = %q", buf.String())
	}
}
