package common

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		severity Severity
		expected string
	}{
		{SeverityDebug, "DEBUG"},
		{SeverityInfo, "INFO"},
		{SeverityWarning, "WARNING"},
		{SeverityError, "ERROR"},
		{Severity(17), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := tt.severity.String()
			if got != tt.expected {
				t.Errorf("Severity.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"debug", SeverityDebug, false},
		{"INFO", SeverityInfo, false},
		{"", SeverityInfo, false},
		{"warn", SeverityWarning, false},
		{" warning ", SeverityWarning, false},
		{"error", SeverityError, false},
		{"loud", SeverityInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeverity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStdLogger_Log(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewStdLoggerWithWriter(&stdout, &stderr, SeverityDebug)

	tests := []struct {
		name     string
		severity Severity
		message  string
		checkOut bool // true for stdout, false for stderr
	}{
		{"Debug", SeverityDebug, "debug message", true},
		{"Info", SeverityInfo, "info message", true},
		{"Warning", SeverityWarning, "warning message", true},
		{"Error", SeverityError, "error message", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout.Reset()
			stderr.Reset()

			logger.Log(tt.severity, tt.message)

			output := stderr.String()
			if tt.checkOut {
				output = stdout.String()
			}

			if !strings.Contains(output, tt.message) {
				t.Errorf("Log output should contain %q, got: %s", tt.message, output)
			}
			if !strings.Contains(output, tt.severity.String()) {
				t.Errorf("Log output should contain severity %q, got: %s", tt.severity.String(), output)
			}
		})
	}
}

func TestStdLogger_Named(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := NewStdLoggerWithWriter(&stdout, &stderr, SeverityInfo)
	pu := root.Named("core0").Named("pu")

	pu.Info("started")
	if !strings.Contains(stdout.String(), "[core0/pu] started") {
		t.Errorf("named output = %q, want component prefix", stdout.String())
	}

	stdout.Reset()
	root.Info("plain")
	if strings.Contains(stdout.String(), "[") {
		t.Errorf("root logger should not carry a component, got %q", stdout.String())
	}

	if _, ok := Named(NewNoOpLogger(), "x").(*NoOpLogger); !ok {
		t.Error("Named on a NoOpLogger should return it unchanged")
	}
	if _, ok := Named(nil, "x").(*NoOpLogger); !ok {
		t.Error("Named(nil) should fall back to a NoOpLogger")
	}
}

func TestStdLogger_Logf(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewStdLoggerWithWriter(&stdout, &stderr, SeverityInfo)

	logger.Logf(SeverityInfo, "formatted %s %d", "test", 123)
	if !strings.Contains(stdout.String(), "formatted test 123") {
		t.Errorf("Logf output should contain formatted message, got: %s", stdout.String())
	}

	stdout.Reset()
	logger.Logf(SeverityDebug, "hidden %d", 1)
	if stdout.Len() != 0 {
		t.Errorf("Logf below min level should not log, got: %s", stdout.String())
	}
}

func TestStdLogger_Error(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewStdLoggerWithWriter(&stdout, &stderr, SeverityInfo)

	logger.Error(errors.New("test error"))
	if !strings.Contains(stderr.String(), "test error") {
		t.Errorf("Error output should contain error message, got: %s", stderr.String())
	}

	stderr.Reset()
	logger.Error(nil)
	if stderr.Len() != 0 {
		t.Errorf("Error(nil) should not log anything, got: %s", stderr.String())
	}
}

func TestStdLogger_MinLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewStdLoggerWithWriter(&stdout, &stderr, SeverityWarning)

	logger.Debug("debug message")
	logger.Info("info message")
	if stdout.Len() != 0 {
		t.Errorf("Debug and Info should not be logged when minLevel is Warning, got: %s", stdout.String())
	}

	logger.Warning("warning message")
	if !strings.Contains(stdout.String(), "warning message") {
		t.Errorf("Warning should be logged, got: %s", stdout.String())
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()

	// none of these may panic
	logger.Log(SeverityInfo, "test")
	logger.Logf(SeverityInfo, "test %s", "formatted")
	logger.Error(errors.New("test error"))
	logger.Debug("debug")
	logger.Info("info")
	logger.Warning("warning")
}
