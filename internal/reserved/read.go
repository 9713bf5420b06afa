package reserved

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
)

const (
	initialCapacity = 1 << 16
	// ctx is polled once per this many lines.
	cancelCheckInterval = 100_000
)

// readGzipCodes reads one code per line from a gzip stream. Blank lines are skipped.
func readGzipCodes(ctx context.Context, r io.Reader) (*mapSet, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	set := newMapSet(initialCapacity)

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() {
		if lines%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		set.add(scanner.Text())
		lines++
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read codes: %w", err)
	}

	return set, nil
}
