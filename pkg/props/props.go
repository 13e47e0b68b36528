// Package props reads the flat key=value properties files that declare the
// image work list. The parser is deliberately lenient: comment lines, blank
// lines and lines without a separator are skipped rather than rejected, so a
// hand-edited file never aborts a run over one bad line.
package props

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrSourceUnavailable marks a properties source that could not be opened or
// read. Callers treat it as fatal before any batch work starts.
var ErrSourceUnavailable = errors.New("properties source unavailable")

// Map holds the parsed properties. It is built once by Load and not mutated
// afterwards.
type Map map[string]string

// LoadFile parses the properties file at path.
func LoadFile(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load parses properties from r, line by line. Lines are trimmed; empty
// lines and lines starting with '#' are skipped. The first '=' splits key
// from value, both trimmed. A duplicate key keeps the last value seen.
// Lines without '=' are silently ignored.
func Load(r io.Reader) (Map, error) {
	m := make(Map)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		m[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return m, nil
}

// Get returns the value for key and whether it was present.
func (m Map) Get(key string) (string, bool) {
	value, ok := m[key]
	return value, ok
}

// List splits the value for key on commas, trims each token and drops empty
// ones. An absent key yields an empty list.
func (m Map) List(key string) []string {
	value, ok := m[key]
	if !ok {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
