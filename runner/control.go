package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Control reads one command per line from in until in is exhausted, ctx is
// done or the runner is stopped: "p" toggles pause and "q" stops the runner.
func (r *Runner) Control(ctx context.Context, in io.Reader, out io.Writer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch line {
			case "p":
				if r.TogglePause() {
					fmt.Fprintf(out, "execution paused at t=%g\n", r.Stats().Time)
				} else {
					fmt.Fprintln(out, "execution resumed")
				}
			case "q":
				_ = r.Stop()
				fmt.Fprintf(out, "execution aborted at t=%g\n", r.Stats().Time)
				return
			}
		}
	}
}
