package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one line of console-encoded zap output.
type Entry struct {
	Time      string
	Level     string
	Component string
	Caller    string
	Message   string
	Fields    string
	Raw       string
}

// Parse splits a console log line into its tab-separated columns. Lines that
// do not look like log entries come back with only Raw and Message set.
func Parse(line string) Entry {
	e := Entry{Raw: line}
	cols := strings.Split(line, "\t")
	if len(cols) < 3 || !isLevel(cols[1]) {
		e.Message = line
		return e
	}
	e.Time = cols[0]
	e.Level = cols[1]
	rest := cols[2:]

	if len(rest) > 1 && strings.HasPrefix(rest[0], "rewear") {
		e.Component = strings.TrimPrefix(strings.TrimPrefix(rest[0], "rewear"), ".")
		rest = rest[1:]
	}
	if len(rest) > 1 && looksLikeCaller(rest[0]) {
		e.Caller = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		e.Message = rest[0]
	}
	if len(rest) > 1 {
		e.Fields = strings.Join(rest[1:], " ")
	}
	return e
}

// ParseAll parses every line.
func ParseAll(lines []string) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		out = append(out, Parse(line))
	}
	return out
}

func isLevel(s string) bool {
	switch s {
	case "DEBUG", "INFO", "WARN", "ERROR", "DPANIC", "PANIC", "FATAL":
		return true
	}
	return false
}

func looksLikeCaller(s string) bool {
	i := strings.LastIndexByte(s, ':')
	return i > 0 && strings.HasSuffix(s[:i], ".go")
}
