// Package cardlist reads deck-style card lists ("4 Lightning Bolt").
package cardlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var entryPattern = regexp.MustCompile(`^\d+\s+(.*)$`)

// Parse returns the card names of r in file order. Blank lines, lines starting
// with '#' and lines without a leading count are ignored. The count itself is
// discarded; each listed card is captured once.
func Parse(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		match := entryPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		if name := strings.TrimSpace(match[1]); name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read card list: %w", err)
	}
	return names, nil
}

// ParseFile parses the list stored at path.
func ParseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open card list: %w", err)
	}
	defer file.Close()
	return Parse(file)
}
