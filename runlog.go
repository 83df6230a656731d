package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// logpath is the output folder for one run: out/<date>/<time>, with the note
// appended when given.
func logpath(
	out, note string,
	now time.Time,
) (
	string,
) {

	name := now.Format("15-04-05")
	if note != "" {
		name += " " + note
	}
	return filepath.Join(out, now.Format("2006-Jan-02"), name)
}

// logHeader starts a run log with the command line and data source.
func logHeader(
	args []string,
	source string,
	rows int,
	filters []string,
	now time.Time,
) (
	[]string,
) {

	logFile := []string{
		fmt.Sprintf("goatx %s\n", strings.Join(args, " ")),
		fmt.Sprintf("Run at: %s\n", now.Format(time.RFC3339)),
		fmt.Sprintf("Data: %s (%d rows)\n", source, rows),
	}
	if len(filters) > 0 {
		logFile = append(logFile, fmt.Sprintf("Filters: %s\n", strings.Join(filters, ", ")))
	}
	return logFile
}

// writeLog writes the run log to dir/log.txt, creating dir if needed.
func writeLog(
	dir string,
	logFile []string,
) error {

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	txt, err := os.Create(filepath.Join(dir, "log.txt"))
	if err != nil {
		return err
	}
	defer txt.Close()

	w := bufio.NewWriter(txt)
	for _, line := range logFile {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
	}
	return w.Flush()
}
