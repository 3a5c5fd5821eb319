package state

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("environment start time not set")
	}
}

func TestEnvFromContext_PanicsWithoutEnv(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	time.Sleep(10 * time.Millisecond)
	if got := env.Uptime(); got < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", got)
	}
}

func TestLocalEnv_StdLogRedirect(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	// nil logger: both calls are no-ops
	env.RedirectStdLog()
	env.RestoreStdLog()

	env.Log = zaptest.NewLogger(t)
	env.RedirectStdLog()
	if env.restoreStdLog == nil {
		t.Error("RedirectStdLog should capture the restore hook")
	}
	env.RestoreStdLog()
}
