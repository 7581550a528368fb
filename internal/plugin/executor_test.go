package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func scriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest:   Manifest{Name: name, Version: "1.0.0", Executable: name + ".sh"},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "ok", `#!/bin/sh
cat <<'JSON'
{"success":true,"data":{"message":"hello world"}}
JSON
`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Event: "smile", Active: true})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo", `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	request := &Request{
		Event:   "eyes_closed",
		Active:  true,
		Session: "abc",
		Frame:   42,
		Face:    1,
		Params:  json.RawMessage(`{"left_eye":0.01}`),
	}

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Event != "eyes_closed" || !got.Active || got.Session != "abc" || got.Frame != 42 || got.Face != 1 {
		t.Errorf("unexpected echoed request %+v", got)
	}
	if !strings.Contains(string(got.Params), "left_eye") {
		t.Errorf("expected params to be passed through, got %s", got.Params)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow", `#!/bin/sh
sleep 10
echo '{"success":true}'
`)

	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), plugin, &Request{Event: "danger"})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got: %v", err)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "invalid json", script: "#!/bin/sh\necho 'not valid json'\n"},
		{name: "non-zero exit", script: "#!/bin/sh\necho 'Error: something failed' >&2\nexit 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := scriptPlugin(t, "bad", tt.script)
			if _, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{}); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, "err", `#!/bin/sh
echo '{"success":false,"error":"something went wrong"}'
`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}

func TestManifest_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		kind   string
		want   bool
	}{
		{name: "empty accepts all", events: nil, kind: "danger", want: true},
		{name: "listed", events: []string{"smile", "danger"}, kind: "danger", want: true},
		{name: "not listed", events: []string{"smile"}, kind: "eyes_closed", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Manifest{Events: tt.events}
			if got := m.Accepts(tt.kind); got != tt.want {
				t.Errorf("Accepts(%q) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(3 * time.Second)
	if executor.Timeout() != 3*time.Second {
		t.Errorf("expected timeout 3s, got %s", executor.Timeout())
	}
}
