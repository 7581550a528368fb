// Package selector asks the user which input source to analyze.
package selector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ayusman/facemesh/internal/capture"
)

// DefaultVideoPath is the predefined video file offered by the menu.
const DefaultVideoPath = "Videos/2.mp4"

// Menu choices.
const (
	ChoiceCamera = "1"
	ChoiceFile   = "2"
)

// ErrInvalidChoice is returned for anything other than a listed menu option.
var ErrInvalidChoice = errors.New("invalid choice")

// Choose prints the source menu to out, reads one line from in and returns
// the selected target: camera 0 for "1", videoPath for "2".
func Choose(in io.Reader, out io.Writer, videoPath string) (capture.Target, error) {
	fmt.Fprintln(out, "Choose input source:")
	fmt.Fprintln(out, "1: Live Camera")
	fmt.Fprintln(out, "2: Predefined Video File")
	fmt.Fprint(out, "Enter your choice (1/2): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return capture.Target{}, fmt.Errorf("read choice: %w", err)
	}

	target, err := Parse(line, videoPath)
	if err != nil {
		fmt.Fprintln(out, "Invalid choice!")
		return capture.Target{}, err
	}
	return target, nil
}

// Parse maps a menu answer to a target.
func Parse(choice, videoPath string) (capture.Target, error) {
	switch strings.TrimSpace(choice) {
	case ChoiceCamera:
		return capture.CameraTarget(capture.DefaultCameraID), nil
	case ChoiceFile:
		if videoPath == "" {
			videoPath = DefaultVideoPath
		}
		return capture.FileTarget(videoPath), nil
	default:
		return capture.Target{}, fmt.Errorf("%w: %q", ErrInvalidChoice, strings.TrimSpace(choice))
	}
}

// FromName resolves a non-interactive source name ("camera" or "file").
func FromName(name, videoPath string) (capture.Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "camera", ChoiceCamera:
		return Parse(ChoiceCamera, videoPath)
	case "file", ChoiceFile:
		return Parse(ChoiceFile, videoPath)
	default:
		return capture.Target{}, fmt.Errorf("%w: %q", ErrInvalidChoice, name)
	}
}
