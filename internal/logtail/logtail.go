package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoLog is returned when the log file does not exist yet.
var ErrNoLog = errors.New("log file not found")

const maxLineBytes = 1024 * 1024

// Last returns at most n lines from the end of the file at path. A
// non-positive n returns every line.
func Last(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoLog, path)
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	lines, err := lastLines(file, n)
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", path, err)
	}
	return lines, nil
}

// lastLines keeps the final n lines of r in a ring.
func lastLines(r io.Reader, n int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	if n <= 0 {
		var all []string
		for scanner.Scan() {
			all = append(all, scanner.Text())
		}
		return all, scanner.Err()
	}

	ring := make([]string, n)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	out := make([]string, count)
	if count < n {
		copy(out, ring[:count])
		return out, nil
	}
	for i := range out {
		out[i] = ring[(next+i)%n]
	}
	return out, nil
}
