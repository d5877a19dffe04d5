package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingConfig_Prepare(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		report    bool
		wantDebug bool
	}{
		{"normal", "normal", false, false},
		{"debug", "debug", false, true},
		{"report forces debug", "normal", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			conf := LoggingConfig{
				ConsoleLogger: LoggerConfig{Level: "none"},
				FileLogger:    LoggerConfig{Level: tt.level, Destination: filepath.Join(dir, "wagi.log"), Mode: "overwrite"},
			}
			var rpt *Report
			if tt.report {
				var err error
				if rpt, err = (&ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare(); err != nil {
					t.Fatalf("Prepare() report error = %v", err)
				}
				defer rpt.Close()
			}

			log, err := conf.Prepare(rpt)
			if err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}
			t.Cleanup(func() { _ = conf.ReleasePanicLog() })
			log.Debug("debug entry")
			log.Info("info entry")
			_ = log.Sync()

			data, err := os.ReadFile(conf.FileLogger.Destination)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			text := string(data)
			if !strings.Contains(text, "info entry") {
				t.Errorf("log file missing info entry:\n%s", text)
			}
			if got := strings.Contains(text, "debug entry"); got != tt.wantDebug {
				t.Errorf("log file has debug entry = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestLoggingConfig_PrepareNothing(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Info("goes nowhere")
}

func TestEnableColorOutput_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if EnableColorOutput(os.Stdout) {
		t.Error("EnableColorOutput() = true with NO_COLOR set")
	}
}

func TestLoggingConfig_PanicLog(t *testing.T) {
	dir := t.TempDir()
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal", Destination: filepath.Join(dir, "wagi.log"), Mode: "overwrite"},
	}
	if _, err := conf.Prepare(nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	t.Cleanup(func() { _ = conf.ReleasePanicLog() })

	want := filepath.Join(dir, "wagi-panic.log")
	if got := conf.PanicLog(); got != want {
		t.Fatalf("PanicLog() = %q, want %q", got, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("panic log not created: %v", err)
	}

	if err := conf.ReleasePanicLog(); err != nil {
		t.Fatalf("ReleasePanicLog() error = %v", err)
	}
	if _, err := os.Stat(want); !os.IsNotExist(err) {
		t.Errorf("empty panic log kept, Stat() error = %v", err)
	}
	if conf.PanicLog() != "" {
		t.Errorf("PanicLog() = %q after release", conf.PanicLog())
	}
}

func TestLoggingConfig_ReleaseKeepsUnrelatedFile(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "wagi-panic.log")
	if err := os.WriteFile(other, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none", Destination: filepath.Join(dir, "wagi.log")},
	}
	if _, err := conf.Prepare(nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if conf.PanicLog() != "" {
		t.Errorf("PanicLog() = %q with file logging disabled", conf.PanicLog())
	}
	if err := conf.ReleasePanicLog(); err != nil {
		t.Fatalf("ReleasePanicLog() error = %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("file not owned by logger was removed: %v", err)
	}
}
