package reserved

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "reserved-file-loader").Logger(),
	}
}

// Load reads a gzipped file with one code per line.
func (l *fileLoader) Load(ctx context.Context, path string) (Set, error) {
	l.logger.Info().Str("file", path).Msg("loading reserved codes")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open reserved code file")
		return nil, fmt.Errorf("failed to open reserved code file %s: %w", path, err)
	}
	defer file.Close()

	set, err := readGzipCodes(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to load reserved code file")
		return nil, fmt.Errorf("failed to load reserved code file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("codes_loaded", set.Size()).
		Msg("reserved code file loaded")

	return set, nil
}
