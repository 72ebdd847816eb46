package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Warn("Test warning message", "key", "value")
	Error("Test error message")

	if _, err := os.Stat(filepath.Join(logDir, "weekplan.log")); err != nil {
		t.Errorf("log file not written: %v", err)
	}
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantDebug bool
		wantInfo  bool
	}{
		{name: "default warns only", cfg: Config{}},
		{name: "console enables info", cfg: Config{Console: true}, wantInfo: true},
		{name: "debug enables everything", cfg: Config{Debug: true}, wantDebug: true, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			if err := Init(tt.cfg); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			level := Logger.GetLevel()
			if got := level <= -4; got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v (level %v)", got, tt.wantDebug, level)
			}
			if got := level <= 0; got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v (level %v)", got, tt.wantInfo, level)
			}
		})
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
	if With("k", "v") != nil {
		t.Error("With() before Init should return nil")
	}
}

func TestWith(t *testing.T) {
	if err := Init(Config{ConfigDir: t.TempDir()}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if With("request_id", "abc") == nil {
		t.Error("With() returned nil after Init")
	}
}
