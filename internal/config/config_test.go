package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bnodias/openclaw-mission-control/internal/config"
)

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	yml := `api:
  base_url: http://localhost:8000/api/v1
  token_env: MY_TOKEN
actor:
  employee_id: "7"
board:
  default: "1"
`
	if err := os.WriteFile(config.Path(dir), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000/api/v1" {
		t.Fatalf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.Actor.EmployeeID != "7" || cfg.Board.Default != "1" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing config")
	}
	cfg, err := config.LoadOptional(t.TempDir())
	if err != nil || cfg != nil {
		t.Fatalf("optional load: cfg=%v err=%v", cfg, err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		baseURL string
		ok      bool
	}{
		{"http://localhost:8000/api/v1", true},
		{"https://mc.example.com/api/v1", true},
		{"", false},
		{"not a url", false},
		{"/relative/path", false},
	}
	for _, c := range cases {
		cfg := config.Default(c.baseURL)
		err := cfg.Validate()
		if c.ok && err != nil {
			t.Fatalf("%q: unexpected error %v", c.baseURL, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("%q: expected validation error", c.baseURL)
		}
	}
}

func TestGenerateDefaultParses(t *testing.T) {
	yml := config.GenerateDefault("http://localhost:8000/api/v1")
	cfg, err := config.FromYAML([]byte(yml))
	if err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}
	if cfg.API.TokenEnv != "MISSIONCTL_TOKEN" {
		t.Fatalf("token env = %q", cfg.API.TokenEnv)
	}
}

func TestStateDir(t *testing.T) {
	cfg := config.Default("http://localhost:8000")
	if got := cfg.StateDir("/work"); got != filepath.Join("/work", ".missionctl") {
		t.Fatalf("default state dir = %q", got)
	}
	cfg.State.Dir = "/var/lib/mcc"
	if got := cfg.StateDir("/work"); got != "/var/lib/mcc" {
		t.Fatalf("explicit state dir = %q", got)
	}
}

func TestToken(t *testing.T) {
	cfg := config.Default("http://localhost:8000")
	cfg.API.TokenEnv = "MCC_TEST_TOKEN"
	t.Setenv("MCC_TEST_TOKEN", "secret")
	if got := cfg.Token(); got != "secret" {
		t.Fatalf("token = %q", got)
	}
}
