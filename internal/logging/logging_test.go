package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{level: "", want: logrus.InfoLevel},
		{level: "debug", want: logrus.DebugLevel},
		{level: "warn", want: logrus.WarnLevel},
		{level: "error", want: logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(Options{Level: tt.level, Output: &bytes.Buffer{}})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Output: &buf, NoColors: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.WithField("frame", 42).Info("analyzed")

	out := buf.String()
	if !strings.Contains(out, "analyzed") || !strings.Contains(out, "frame:42") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestNew_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "facemesh.log")

	logger, err := New(Options{File: file, Output: &bytes.Buffer{}, NoColors: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Warn("written to file")

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing entry: %q", string(data))
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("dropped")
}
