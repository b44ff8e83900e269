package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"rifflynx/debug"
)

// Recognizer runs one recognition session, sending finalized transcripts to
// out until it ends. A nil return is a normal end; errors are classified
// with IsBenign.
type Recognizer interface {
	Listen(ctx context.Context, out chan<- string) error
}

// parseLine reads one line of recognizer output. Plain lines and "final:"
// lines are transcripts, "partial:" lines are skipped and "error: <name>"
// ends the session with a named error.
func parseLine(line string) (transcript string, ok bool, err error) {
	line = strings.TrimSpace(line)
	lower := strings.ToLower(line)
	switch {
	case line == "":
		return "", false, nil
	case strings.HasPrefix(lower, "partial:"):
		return "", false, nil
	case strings.HasPrefix(lower, "error:"):
		return "", true, Classify(line[len("error:"):])
	case strings.HasPrefix(lower, "final:"):
		line = strings.TrimSpace(line[len("final:"):])
		return line, line != "", nil
	}
	return line, true, nil
}

// scan forwards transcripts from r until it ends, an error line arrives or
// ctx is done
func scan(ctx context.Context, r io.Reader, out chan<- string) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text, ok, err := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if err != nil {
			return err
		}
		select {
		case out <- text:
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}

// CommandRecognizer runs an external speech-to-text program and reads its
// stdout, one line per result
type CommandRecognizer struct {
	Command []string
}

func (c *CommandRecognizer) Listen(ctx context.Context, out chan<- string) error {
	if len(c.Command) == 0 {
		return &FatalError{Name: "no-command"}
	}

	procCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(procCtx, c.Command[0], c.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("recognizer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return &FatalError{Name: fmt.Sprintf("start %s: %v", c.Command[0], err)}
	}
	debug.Log("speech", "recognizer started pid=%d", cmd.Process.Pid)

	scanErr := scan(procCtx, stdout, out)
	if scanErr != nil || ctx.Err() != nil {
		cancel()
		_ = cmd.Wait()
		if ctx.Err() != nil {
			return nil
		}
		return scanErr
	}

	if err := cmd.Wait(); err != nil {
		return &FatalError{Name: fmt.Sprintf("recognizer exited: %v", err)}
	}
	return nil
}

// LineRecognizer reads finalized transcripts from a reader, such as stdin.
// The end of the reader ends recognition for good.
type LineRecognizer struct {
	r io.Reader
}

func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{r: r}
}

func (l *LineRecognizer) Listen(ctx context.Context, out chan<- string) error {
	if err := scan(ctx, l.r, out); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	return ErrInputClosed
}
