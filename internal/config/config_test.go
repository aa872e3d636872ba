package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	t.Run("variable set", func(t *testing.T) {
		t.Setenv("HARBOR_TEST_VAR", "value")
		if got := requireEnv("HARBOR_TEST_VAR"); got != "value" {
			t.Errorf("requireEnv() = %q, want %q", got, "value")
		}
	})

	t.Run("variable missing panics", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("requireEnv() should have panicked")
			}
		}()
		requireEnv("HARBOR_TEST_VAR_MISSING")
	})
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		def       int
		expected  int
		wantPanic bool
	}{
		{name: "valid integer", value: "42", def: 1, expected: 42},
		{name: "missing uses default", value: "", def: 6379, expected: 6379},
		{name: "garbage panics", value: "not_a_number", def: 1, wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HARBOR_TEST_INT", tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Error("getenvInt() should have panicked")
					}
				}()
			}

			if got := getenvInt("HARBOR_TEST_INT", tt.def); !tt.wantPanic && got != tt.expected {
				t.Errorf("getenvInt() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "90s", def: time.Second, expected: 90 * time.Second},
		{name: "invalid uses default", value: "soon", def: 10 * time.Second, expected: 10 * time.Second},
		{name: "missing uses default", value: "", def: time.Hour, expected: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HARBOR_TEST_DURATION", tt.value)
			if got := mustDuration("HARBOR_TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", value: "true", def: false, expected: true},
		{name: "numeric false", value: "0", def: true, expected: false},
		{name: "invalid uses default", value: "maybe", def: true, expected: true},
		{name: "missing uses default", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HARBOR_TEST_BOOL", tt.value)
			if got := mustBool("HARBOR_TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` 10.0.0.0/8, "192.168.1.1" ,, 'harbor.local'`)
	want := []string{"10.0.0.0/8", "192.168.1.1", "harbor.local"}

	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if splitAndTrim("") != nil {
		t.Error("splitAndTrim(\"\") should be nil")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HARBOR_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("HARBOR_REDIS_HOST", "redis.internal")

	cfg := Load()

	if cfg.RedisAddr() != "redis.internal:6379" {
		t.Errorf("RedisAddr() = %q, want redis.internal:6379", cfg.RedisAddr())
	}
	if cfg.FrontendEnabled {
		t.Error("frontends should be disabled by default")
	}
	if cfg.HostTaskTTL != time.Hour {
		t.Errorf("HostTaskTTL = %v, want 1h", cfg.HostTaskTTL)
	}
	if cfg.ConsoleSessionTTL != 120*time.Second {
		t.Errorf("ConsoleSessionTTL = %v, want 120s", cfg.ConsoleSessionTTL)
	}
	if cfg.GCSchedule != "@every 1h" {
		t.Errorf("GCSchedule = %q, want @every 1h", cfg.GCSchedule)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "harbor.env")
	content := "HARBOR_REDIS_HOST=from-file\nHARBOR_FRONTEND_ENABLED=true\nHARBOR_HOST_TASK_TTL=10m\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Setenv("HARBOR_ENV_FILE", envFile)
	// Registered through t.Setenv so the values godotenv injects are reverted.
	t.Setenv("HARBOR_REDIS_HOST", "")
	t.Setenv("HARBOR_FRONTEND_ENABLED", "")
	t.Setenv("HARBOR_HOST_TASK_TTL", "")
	for _, key := range []string{"HARBOR_REDIS_HOST", "HARBOR_FRONTEND_ENABLED", "HARBOR_HOST_TASK_TTL"} {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}

	cfg := Load()

	if cfg.RedisHost != "from-file" {
		t.Errorf("RedisHost = %q, want from-file", cfg.RedisHost)
	}
	if !cfg.FrontendEnabled {
		t.Error("FrontendEnabled should come from the env file")
	}
	if cfg.HostTaskTTL != 10*time.Minute {
		t.Errorf("HostTaskTTL = %v, want 10m", cfg.HostTaskTTL)
	}
}

func TestLoadRejectsTinyTaskTTL(t *testing.T) {
	t.Setenv("HARBOR_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("HARBOR_REDIS_HOST", "localhost")
	t.Setenv("HARBOR_HOST_TASK_TTL", "10ms")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic on a sub-second task ttl")
		}
	}()
	Load()
}
