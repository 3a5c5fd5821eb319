package config

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"
)

func TestLoggingPrepareFileSink(t *testing.T) {
	defer debug.SetCrashOutput(nil, debug.CrashOptions{})

	dir := t.TempDir()
	dest := filepath.Join(dir, "run.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal", Destination: dest, Mode: "overwrite"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Info("file sink works")
	log.Debug("below the requested level")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "file sink works") {
		t.Errorf("log file misses info entry:\n%s", data)
	}
	if strings.Contains(string(data), "below the requested level") {
		t.Errorf("normal level must not record debug entries:\n%s", data)
	}
}

func TestLoggingPrepareAllSinksOff(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Error("goes nowhere")
}
