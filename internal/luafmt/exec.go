package luafmt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/phobologic/luabundle/internal/model"
)

// DefaultTimeout bounds a single external processor run.
const DefaultTimeout = 60 * time.Second

// ExecProcessor hands the bundle to an external command such as darklua.
// The placeholders {file} and {mode} in Command are replaced by the output
// path and the density name.
type ExecProcessor struct {
	Command []string
	Timeout time.Duration
	Dir     string
}

// Process runs the command and waits for it to finish.
func (p *ExecProcessor) Process(ctx context.Context, path string, density model.Density) error {
	if len(p.Command) == 0 {
		return errors.New("processor command is empty")
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := expand(p.Command, path, density)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = p.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			return fmt.Errorf("running %s: %w", args[0], err)
		}
		return fmt.Errorf("running %s: %w: %s", args[0], err, msg)
	}
	return nil
}

func expand(command []string, path string, density model.Density) []string {
	r := strings.NewReplacer("{file}", path, "{mode}", string(density))
	args := make([]string, len(command))
	for i, a := range command {
		args[i] = r.Replace(a)
	}
	return args
}
