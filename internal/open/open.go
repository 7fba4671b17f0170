package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	apperrors "github.com/Zuo-Peng/chatview/internal/errors"
	"github.com/Zuo-Peng/chatview/internal/media"
)

// Opener hands media blobs to an external viewer.
type Opener struct {
	// Viewer is the command to launch; empty selects the platform opener.
	Viewer string
	// Dir receives the temp files; empty uses the system temp dir.
	Dir string

	start func(cmd *exec.Cmd) error
}

func New(viewer string) *Opener {
	return &Opener{Viewer: viewer}
}

// Openable reports whether kind can be shown in a viewer. Audio and other
// files are listed but not opened.
func Openable(kind media.Kind) bool {
	return kind == media.KindImage || kind == media.KindVideo
}

// OpenMedia writes blob to a temp file named after item and launches the
// viewer on it without waiting. It returns the file path.
func (o *Opener) OpenMedia(item *media.Item, blob []byte) (string, error) {
	if !Openable(item.Kind) {
		return "", apperrors.New(apperrors.ErrCodeInvalidInput, "media kind is not viewable").
			WithContext("kind", string(item.Kind)).
			WithUserMessage(fmt.Sprintf("%s cannot be previewed (%s)", item.Name, item.Kind))
	}

	f, err := os.CreateTemp(o.Dir, "chatview-*-"+sanitize(item.Name))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(blob); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	cmd := viewerCommand(o.viewer(), f.Name())
	if err := o.launch(cmd); err != nil {
		return f.Name(), fmt.Errorf("launch %s: %w", cmd.Path, err)
	}
	return f.Name(), nil
}

func (o *Opener) viewer() string {
	if v := strings.TrimSpace(o.Viewer); v != "" {
		return v
	}
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}

func (o *Opener) launch(cmd *exec.Cmd) error {
	if o.start != nil {
		return o.start(cmd)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// viewerCommand splits viewer on spaces so configured flags pass through,
// e.g. "mpv --loop".
func viewerCommand(viewer, filePath string) *exec.Cmd {
	parts := strings.Fields(viewer)
	args := append(parts[1:], filePath)
	return exec.Command(parts[0], args...)
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	return strings.Map(func(r rune) rune {
		if r == '*' || r == '/' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, name)
}
