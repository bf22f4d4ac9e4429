package command

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeycumines/strips/internal/config"
)

// ErrNoLogFile is returned by the log command when no log file is
// configured.
var ErrNoLogFile = errors.New("no log file configured")

// LogCommand prints, and optionally follows, the tail of the log file.
type LogCommand struct {
	*BaseCommand
	config *config.Config
	follow bool
	lines  int
	file   string
	poll   time.Duration
}

// NewLogCommand creates a new log command.
func NewLogCommand(cfg *config.Config) *LogCommand {
	return &LogCommand{
		BaseCommand: NewBaseCommand("log", "View and follow the log file", "log [tail] [options]"),
		config:      cfg,
		poll:        200 * time.Millisecond,
	}
}

// SetupFlags configures the flags for the log command.
func (c *LogCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.follow, "f", false, "Follow the log file (like tail -f)")
	fs.IntVar(&c.lines, "n", 10, "Number of lines to show from the end of the file")
	fs.StringVar(&c.file, "file", "", "Path to log file (overrides config log.file)")
}

// Execute runs the log command. "log tail" is "log -f".
func (c *LogCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "tail" {
		c.follow = true
		args = args[1:]
	}
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unknown subcommand: %s\n", args[0])
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}

	logPath := c.file
	if logPath == "" && c.config != nil {
		logPath = config.DefaultSchema().Resolve(c.config, "log.file")
	}
	if logPath == "" {
		_, _ = fmt.Fprintln(stderr, "No log file configured. Use -file or set log.file in config.")
		return ErrNoLogFile
	}

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, line := range readLastNLines(f, c.lines) {
		_, _ = fmt.Fprintln(stdout, line)
	}
	if !c.follow {
		return nil
	}

	pos, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}
	return c.followFile(ctx, logPath, f, pos, stdout)
}

// readLastNLines returns the last n lines of r, holding at most n lines in
// memory.
func readLastNLines(r io.Reader, n int) []string {
	if n <= 0 {
		return nil
	}
	ring := make([]string, n)
	count := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ring[count%n] = scanner.Text()
		count++
	}
	total := min(count, n)
	result := make([]string, total)
	for i := range total {
		result[i] = ring[(count-total+i)%n]
	}
	return result
}

// followFile copies data appended to the log file until ctx is done. When
// the file at logPath is replaced or truncated, as lumberjack does on
// rotation, it starts over from the new file's beginning.
func (c *LogCommand) followFile(ctx context.Context, logPath string, f *os.File, pos int64, stdout io.Writer) error {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	defer func() { _ = f.Close() }()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}

		if info, err := os.Stat(logPath); err == nil {
			current, statErr := f.Stat()
			if statErr != nil || !os.SameFile(info, current) || info.Size() < pos {
				if nf, err := os.Open(logPath); err == nil {
					_ = f.Close()
					f, pos = nf, 0
				}
			}
		}

		if _, err := f.Seek(pos, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek log file: %w", err)
		}
		n, err := io.Copy(stdout, f)
		if err != nil {
			return fmt.Errorf("failed to read log file: %w", err)
		}
		pos += n
	}
}
