package config

import "testing"

func TestParseEnv_FillsTarget(t *testing.T) {
	t.Setenv("WG_TEST_ADDR", ":9191")

	var target struct {
		Addr string `env:"WG_TEST_ADDR" envDefault:":8080"`
		Seed int64  `env:"WG_TEST_SEED" envDefault:"7"`
	}
	if err := ParseEnv(&target); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if target.Addr != ":9191" {
		t.Fatalf("Addr: got %q, want :9191", target.Addr)
	}
	if target.Seed != 7 {
		t.Fatalf("Seed default: got %d, want 7", target.Seed)
	}
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("WG_TEST_SEED", "not-a-number")

	var target struct {
		Seed int64 `env:"WG_TEST_SEED"`
	}
	if err := ParseEnv(&target); err == nil {
		t.Fatalf("expected error for unparseable value")
	}
}
