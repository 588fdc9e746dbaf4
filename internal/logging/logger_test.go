package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()

	config := Config{
		Level:      "debug",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	if err := Init(config); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	Info("info entry")
	Warnf("warn entry %d", 1)
	Debugf("debug entry %v", true)

	time.Sleep(100 * time.Millisecond)

	mainLog := filepath.Join(tempDir, "artcrawl.log")
	content, err := os.ReadFile(mainLog)
	if err != nil {
		t.Fatalf("main log not written: %v", err)
	}
	for _, want := range []string{"info entry", "warn entry 1", "debug entry true"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("main log missing %q", want)
		}
	}
}

func TestErrorLogFiltered(t *testing.T) {
	tempDir := t.TempDir()

	if err := Init(Config{Level: "info", LogDir: tempDir, MaxSize: 10}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	Info("plain info line")
	Errorf("boom: %s", "broken pipe")

	time.Sleep(100 * time.Millisecond)

	errLog := filepath.Join(tempDir, "artcrawl_error.log")
	content, err := os.ReadFile(errLog)
	if err != nil {
		t.Fatalf("error log not written: %v", err)
	}
	if !strings.Contains(string(content), "broken pipe") {
		t.Error("error log missing the error entry")
	}
	if strings.Contains(string(content), "plain info line") {
		t.Error("error log contains info-level entry, want errors only")
	}
}

func TestInitInvalidLevelDefaultsToInfo(t *testing.T) {
	if err := Init(Config{Level: "nonsense", LogDir: t.TempDir(), MaxSize: 1}); err != nil {
		t.Fatalf("Init() error = %v, want fallback to info", err)
	}
}
