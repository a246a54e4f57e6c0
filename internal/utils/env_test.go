package utils

import (
	"os"
	"testing"
	"time"
)

func TestSafeEnv(t *testing.T) {
	const key = "_DVA_TEST_SAFEENV"
	os.Unsetenv(key)
	if got := SafeEnv(key, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	os.Setenv(key, "value")
	if got := SafeEnv(key, "fallback"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
}

func TestEnvDuration(t *testing.T) {
	const key = "_DVA_TEST_ENVDURATION"
	os.Unsetenv(key)
	if got := EnvDuration(key, time.Second); got != time.Second {
		t.Fatalf("expected 1s fallback, got %v", got)
	}
	os.Setenv(key, "250ms")
	if got := EnvDuration(key, time.Second); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", got)
	}
	os.Setenv(key, "not-a-duration")
	if got := EnvDuration(key, time.Second); got != time.Second {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
}
