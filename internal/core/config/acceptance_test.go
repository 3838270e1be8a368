package config

import (
	"testing"

	"github.com/solatis/easyrules/internal/engine"
)

// TestAcceptanceCriteria verifies the configuration contract the CLI relies on.
func TestAcceptanceCriteria(t *testing.T) {
	t.Run("AC1: Environment variable EASYRULES_ENGINE_KEEP_UNMATCHED accessible via Options", func(t *testing.T) {
		t.Setenv("EASYRULES_ENGINE_KEEP_UNMATCHED", "false")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("AC1 FAIL: LoadConfig error: %v", err)
		}
		e, err := engine.New[int](nil, cfg.Engine.Options()...)
		if err != nil {
			t.Fatalf("AC1 FAIL: engine.New error: %v", err)
		}
		if e.KeepsUnmatched() {
			t.Fatal("AC1 FAIL: keep_unmatched override not applied")
		}
		t.Log("AC1 PASS: Environment variable reaches the engine options")
	})

	t.Run("AC2: Rule set passed as config file rejected with clear error", func(t *testing.T) {
		path := writeConfig(t, `name: risk
rules:
  - name: block
    when: {field: blacklisted, op: eq, value: true}
`)

		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("AC2 FAIL: Expected error for rule set in config file")
		}
		if err.Error() != "rule definitions not allowed in config files (pass the rule set with --rules)" {
			t.Fatalf("AC2 FAIL: Wrong error message: %v", err)
		}
		t.Log("AC2 PASS: Rule set in config file rejected with clear error")
	})

	t.Run("AC3: Environment variables override config file", func(t *testing.T) {
		t.Setenv("EASYRULES_ENGINE_MATCH_MODE", "all")

		path := writeConfig(t, `engine:
  match_mode: first
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("AC3 FAIL: LoadConfig error: %v", err)
		}
		if cfg.Engine.MatchMode == nil || *cfg.Engine.MatchMode != engine.MatchAll {
			t.Fatalf("AC3 FAIL: Environment should override config file. Expected all, got %v", cfg.Engine.MatchMode)
		}
		t.Log("AC3 PASS: Environment variables override config file (CLI flags > env > config in viper)")
	})

	t.Run("AC4: Unset engine keys leave the rule set in charge", func(t *testing.T) {
		path := writeConfig(t, `log:
  level: warn
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("AC4 FAIL: LoadConfig error: %v", err)
		}
		if len(cfg.Engine.Options()) != 0 {
			t.Fatalf("AC4 FAIL: Expected no engine overrides, got %d", len(cfg.Engine.Options()))
		}
		t.Log("AC4 PASS: No engine overrides without configuration")
	})
}
