// Package main is an alert hook that raises a desktop notification.
// It uses osascript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Request mirrors the alert request written by the hook executor.
type Request struct {
	Event   string          `json:"event"`
	Active  bool            `json:"active"`
	Session string          `json:"session,omitempty"`
	Frame   int64           `json:"frame"`
	Face    int             `json:"face"`
	Config  json.RawMessage `json:"config,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is written back to the executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

var messages = map[string]string{
	"eyes_closed": "Eyes Closed!",
	"smile":       "SMILE!",
	"danger":      "DANGER!",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	text, ok := messages[req.Event]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}

	// Only rising edges are worth a notification
	if !req.Active {
		writeSuccessResponse("skipped")
		return
	}

	body := fmt.Sprintf("face %d, frame %d", req.Face, req.Frame)
	if err := notify(text, body); err != nil {
		writeErrorResponse(fmt.Sprintf("notify %s failed: %v", req.Event, err))
		return
	}

	writeSuccessResponse("sent")
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse(status string) {
	data, _ := json.Marshal(map[string]string{"status": status})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", "facemesh: "+title, body)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
