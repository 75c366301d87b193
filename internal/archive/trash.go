package archive

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// Trasher disposes of an original file once it is safely archived.
type Trasher interface {
	Trash(path string) error
}

// TrasherFunc adapts a plain function to the Trasher interface.
type TrasherFunc func(path string) error

// Trash calls f(path).
func (f TrasherFunc) Trash(path string) error {
	return f(path)
}

// RemoveTrasher deletes files permanently.
type RemoveTrasher struct{}

// Trash removes path.
func (RemoveTrasher) Trash(path string) error {
	return os.Remove(path)
}

// CommandTrasher moves files to the desktop trash with an external command
// such as trash-put, so they can still be restored.
type CommandTrasher struct {
	Argv []string
}

// Trash runs the trash command with path as its last argument.
func (t CommandTrasher) Trash(path string) error {
	args := make([]string, 0, len(t.Argv))
	args = append(args, t.Argv[1:]...)
	cmd := exec.Command(t.Argv[0], append(args, path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", strings.Join(t.Argv, " "), err, msg)
		}
		return fmt.Errorf("%s: %w", strings.Join(t.Argv, " "), err)
	}
	return nil
}

// trashCommands are tried in order by NewTrasher.
var trashCommands = [][]string{
	{"trash-put"},
	{"trash"},
	{"gio", "trash"},
}

// NewTrasher returns a CommandTrasher for the first trash command found on
// PATH, or a RemoveTrasher when there is none.
func NewTrasher() Trasher {
	for _, argv := range trashCommands {
		if _, err := exec.LookPath(argv[0]); err == nil {
			log.Debug().Strs("command", argv).Msg("Moving archived files to trash")
			return CommandTrasher{Argv: argv}
		}
	}
	log.Debug().Msg("No trash command found, archived files will be deleted")
	return RemoveTrasher{}
}
