package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitializeLoadsDefaults(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	userCfg := filepath.Join(tmp, "user.yaml")

	if err := Initialize(WithWorkingDir(tmp), WithUserConfig(userCfg)); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if GetBool(KeyOutputJSON) {
		t.Fatalf("expected default %s to be false", KeyOutputJSON)
	}
	if got := GetString(KeyOutputFormat); got != "rich" {
		t.Fatalf("expected default %s to be rich, got %q", KeyOutputFormat, got)
	}
	if got := GetString(KeyLogLevel); got != "warn" {
		t.Fatalf("expected default %s to be warn, got %q", KeyLogLevel, got)
	}
	if got := GetString(KeyServeAddr); got != ":8081" {
		t.Fatalf("expected default %s to be :8081, got %q", KeyServeAddr, got)
	}
	if got := DatabasePath(); got != filepath.Join(tmp, DirName, DatabaseFile) {
		t.Fatalf("expected database under the working dir, got %q", got)
	}
}

func TestProjectConfigOverridesUser(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "site")
	nested := filepath.Join(projectDir, "phase1", "drawings")
	mustMkdir(t, filepath.Join(projectDir, DirName))
	mustMkdir(t, nested)
	writeFile(t, filepath.Join(projectDir, DirName, "config.yaml"), `
output:
  format: project
log:
  level: debug
`)

	userCfg := filepath.Join(tmp, "user.yaml")
	writeFile(t, userCfg, `
output:
  format: user
claude:
  model: user-model
log:
  level: error
`)

	if err := Initialize(WithWorkingDir(nested), WithUserConfig(userCfg)); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetString(KeyOutputFormat); got != "project" {
		t.Fatalf("expected project config to win for %s, got %q", KeyOutputFormat, got)
	}
	if got := GetString(KeyLogLevel); got != "debug" {
		t.Fatalf("expected project log level, got %q", got)
	}
	if got := GetString(KeyClaudeModel); got != "user-model" {
		t.Fatalf("expected user config to fill unset keys, got %q", got)
	}
	if got := DatabasePath(); got != filepath.Join(projectDir, DirName, DatabaseFile) {
		t.Fatalf("expected database next to the project config, got %q", got)
	}
}

func TestEnvironmentAndOverridesPrecedence(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	projectCfg := filepath.Join(tmp, DirName, "config.yaml")
	mustMkdir(t, filepath.Dir(projectCfg))
	writeFile(t, projectCfg, `
output:
  json: false
database:
  path: /project/cornerstone.db
`)

	t.Setenv("CORNERSTONE_OUTPUT_JSON", "true")
	t.Setenv("CORNERSTONE_DATABASE_PATH", "/env/cornerstone.db")

	if err := Initialize(
		WithWorkingDir(tmp),
		WithProjectConfig(projectCfg),
		WithUserConfig(filepath.Join(tmp, "user.yaml")),
	); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if !GetBool(KeyOutputJSON) {
		t.Fatalf("expected environment variable to override %s", KeyOutputJSON)
	}
	if got := DatabasePath(); got != "/env/cornerstone.db" {
		t.Fatalf("expected env override for %s, got %q", KeyDatabasePath, got)
	}

	if err := ApplyOverrides(map[string]any{
		KeyOutputJSON:   false,
		KeyDatabasePath: "/flag/cornerstone.db",
	}); err != nil {
		t.Fatalf("ApplyOverrides returned error: %v", err)
	}

	if GetBool(KeyOutputJSON) {
		t.Fatalf("expected override to win for %s", KeyOutputJSON)
	}
	if got := DatabasePath(); got != "/flag/cornerstone.db" {
		t.Fatalf("expected flag override for database path, got %q", got)
	}
}

func TestInvalidProjectConfig(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	projectCfg := filepath.Join(tmp, DirName, "config.yaml")
	mustMkdir(t, filepath.Dir(projectCfg))
	writeFile(t, projectCfg, "output: [unterminated\n")

	if err := Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, "user.yaml"))); err == nil {
		t.Fatal("expected an error for malformed project config")
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
