package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/procthread/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View workload logs",
	Long: `View and filter the JSON log written to logging.dir/procthread.log.

Examples:
  # Show the last 50 entries
  procthread logs --log-dir /tmp/pt

  # Only warnings and errors from the mailbox layer
  procthread logs --level warn --component mailbox

  # Everything thread 7 logged during one run
  procthread logs --thread 7 --run 3f2a... -n 0

  # Follow new entries until interrupted
  procthread logs -f`,
	RunE: runLogs,
}

var (
	logsTail      int
	logsFollow    bool
	logsLevel     string
	logsSince     string
	logsGrep      string
	logsComponent string
	logsRun       string
	logsThread    uint32
)

// followPoll is how often follow mode checks the file for new lines.
const followPoll = 100 * time.Millisecond

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter entries matching pattern (regex)")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "Only entries from this component (mailbox, rwlock, thread, ...)")
	logsCmd.Flags().StringVar(&logsRun, "run", "", "Only entries from this workload run id")
	logsCmd.Flags().Uint32Var(&logsThread, "thread", 0, "Only entries from this thread handle id")
}

// logEntry is a parsed JSON log line.
type logEntry struct {
	Time      time.Time      `json:"time"`
	Level     string         `json:"level"`
	Msg       string         `json:"msg"`
	Component string         `json:"component,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	ThreadID  uint32         `json:"thread_id,omitempty"`
	Extra     map[string]any `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (e *logEntry) UnmarshalJSON(data []byte) error {
	type alias logEntry
	if err := json.Unmarshal(data, (*alias)(e)); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, known := range []string{"time", "level", "msg", "component", "run_id", "thread_id"} {
		delete(all, known)
	}
	if len(all) > 0 {
		e.Extra = all
	}
	return nil
}

// logFilter selects which entries are printed.
type logFilter struct {
	minLevel  int
	since     time.Time
	grep      *regexp.Regexp
	component string
	runID     string
	threadID  uint32
}

func (f *logFilter) match(e *logEntry) bool {
	if f.minLevel >= 0 && levelPriority(e.Level) < f.minLevel {
		return false
	}
	if !f.since.IsZero() && e.Time.Before(f.since) {
		return false
	}
	if f.component != "" && e.Component != f.component {
		return false
	}
	if f.runID != "" && e.RunID != f.runID {
		return false
	}
	if f.threadID != 0 && e.ThreadID != f.threadID {
		return false
	}
	if f.grep != nil {
		text := e.Msg
		for _, v := range e.Extra {
			text += " " + fmt.Sprintf("%v", v)
		}
		if !f.grep.MatchString(text) {
			return false
		}
	}
	return true
}

var (
	logTimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	logFieldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	logLevelStyle = map[string]lipgloss.Style{
		logging.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		logging.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		logging.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		logging.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

// levelPriority orders levels for --level; unknown levels sort below debug.
func levelPriority(level string) int {
	return slices.Index([]string{logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError},
		strings.ToUpper(level))
}

// formatLogEntry renders e as one terminal line.
func formatLogEntry(e *logEntry) string {
	var sb strings.Builder
	level := strings.ToUpper(e.Level)

	sb.WriteString(logTimeStyle.Render("[" + e.Time.Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(logLevelStyle[level].Render("[" + level + "]"))
	sb.WriteString(" ")
	sb.WriteString(e.Msg)

	field := func(k string, v any) {
		sb.WriteString(" ")
		sb.WriteString(logFieldStyle.Render(k + "="))
		sb.WriteString(fmt.Sprintf("%v", v))
	}
	if e.Component != "" {
		field("component", e.Component)
	}
	if e.ThreadID != 0 {
		field("thread_id", e.ThreadID)
	}
	if e.RunID != "" {
		field("run_id", e.RunID)
	}
	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		field(k, e.Extra[k])
	}
	return sb.String()
}

func runLogs(cmd *cobra.Command, _ []string) error {
	dir := viper.GetString("logging.dir")
	if dir == "" {
		return errors.New("logging.dir is not set; workloads log to stderr")
	}
	logPath := filepath.Join(dir, logging.LogFileName)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		_, _ = fmt.Fprintf(out, "No logs found at %s\n", logPath)
		return nil
	}

	filter := &logFilter{
		minLevel:  -1,
		component: logsComponent,
		runID:     logsRun,
		threadID:  logsThread,
	}
	if logsLevel != "" {
		filter.minLevel = levelPriority(logging.ParseLevel(logsLevel))
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.since = time.Now().Add(-d)
	}
	if logsGrep != "" {
		re, err := regexp.Compile(logsGrep)
		if err != nil {
			return fmt.Errorf("invalid grep pattern: %w", err)
		}
		filter.grep = re
	}

	if logsFollow {
		return followLogs(cmd.Context(), out, logPath, filter)
	}
	return displayLogs(out, logPath, logsTail, filter)
}

// renderLine formats a raw log line, reporting false when the filter drops it.
// Lines that are not JSON pass through unchanged.
func renderLine(line string, filter *logFilter) (string, bool) {
	var e logEntry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return line, true
	}
	if !filter.match(&e) {
		return "", false
	}
	return formatLogEntry(&e), true
}

// displayLogs prints the last tail matching entries of logPath.
func displayLogs(out io.Writer, logPath string, tail int, filter *logFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		if rendered, ok := renderLine(scanner.Text(), filter); ok {
			lines = append(lines, rendered)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	if tail > 0 && len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}
	for _, l := range lines {
		_, _ = fmt.Fprintln(out, l)
	}
	if len(lines) == 0 {
		_, _ = fmt.Fprintln(out, "No matching log entries found.")
	}
	return nil
}

// followLogs prints entries appended to logPath until ctx is done.
func followLogs(ctx context.Context, out io.Writer, logPath string, filter *logFilter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Following %s... (Ctrl+C to stop)\n\n", logPath)

	reader := bufio.NewReader(file)
	var partial string
	for {
		chunk, err := reader.ReadString('\n')
		partial += chunk
		if errors.Is(err, io.EOF) {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(followPoll):
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}

		line := strings.TrimSpace(partial)
		partial = ""
		if line == "" {
			continue
		}
		if rendered, ok := renderLine(line, filter); ok {
			_, _ = fmt.Fprintln(out, rendered)
		}
	}
}
