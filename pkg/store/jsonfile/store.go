package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// ErrNoData is returned by ReadAll when the backing file does not exist yet.
var ErrNoData = errors.New("no data available")

// Store is an append-only collection persisted as one JSON array on disk.
// Every call reads or rewrites the whole file. There is no locking: two
// concurrent Append calls may race and one of the writes can be lost.
type Store[T any] interface {
	Append(ctx context.Context, record T) error
	ReadAll(ctx context.Context) ([]T, error)
	Path() string
}

type fileStore[T any] struct {
	path string
}

func NewStore[T any](path string) (Store[T], error) {
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	return &fileStore[T]{path: path}, nil
}

func (s *fileStore[T]) Path() string {
	return s.path
}

func (s *fileStore[T]) Append(ctx context.Context, record T) error {
	records, err := s.ReadAll(ctx)
	if err != nil && !errors.Is(err, ErrNoData) {
		return err
	}
	records = append(records, record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	return s.write(data)
}

// ReadAll never fails on unreadable or corrupt content: such files are logged
// and treated as an empty collection.
func (s *fileStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	logger := zerolog.Ctx(ctx)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, ErrNoData
		}
		logger.Error().Err(err).Str("path", s.path).Msg("failed to read data file, using empty collection")
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("corrupt data file, using empty collection")
		return []T{}, nil
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (s *fileStore[T]) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
