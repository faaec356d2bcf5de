package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerWithWriter(Invocation{Command: "compile", ProjectDir: "/tmp/project"}, &buf)

	logger.Info("graph compiled", map[string]any{"actions": 3})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["command"] != "compile" {
		t.Errorf("expected command=compile, got %v", entry["command"])
	}
	if entry["project_dir"] != "/tmp/project" {
		t.Errorf("expected project_dir=/tmp/project, got %v", entry["project_dir"])
	}
	if entry["message"] != "graph compiled" {
		t.Errorf("expected message field, got %v", entry["message"])
	}
}

func TestLogger_OmitsEmptyProjectDir(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerWithWriter(Invocation{Command: "version"}, &buf)
	logger.Info("hello", nil)

	if strings.Contains(buf.String(), "project_dir") {
		t.Errorf("expected no project_dir field: %s", buf.String())
	}
}

func TestSugaredLogger_Printf(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerWithWriter(Invocation{Command: "run"}, &buf)
	logger.Sugar().Infof("planned %d actions", 7)

	if !strings.Contains(buf.String(), "planned 7 actions") {
		t.Errorf("expected formatted message in output: %s", buf.String())
	}
}
