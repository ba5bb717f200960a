package excel

import (
	"context"
	"fmt"

	"scoregaps/domain/facts"
	"scoregaps/internal"
	"scoregaps/internal/errors"
)

// FileSource loads the fact table from a local .csv or .xlsx file
type FileSource struct {
	path   string
	sheet  string
	logger *internal.Logger
}

// NewFileSource creates a file-backed fact source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// WithSheet reads the named worksheet of an .xlsx file instead of the first one
func (s *FileSource) WithSheet(name string) *FileSource {
	s.sheet = name
	return s
}

// WithLogger routes reader progress through l
func (s *FileSource) WithLogger(l *internal.Logger) *FileSource {
	s.logger = l
	return s
}

// Describe names the source for logs
func (s *FileSource) Describe() string {
	return "file:" + s.path
}

// Fetch reads and decodes the file
func (s *FileSource) Fetch(ctx context.Context) (*facts.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.DataUnavailable(err)
	}
	data, err := NewDataReader(s.path).WithSheet(s.sheet).WithLogger(s.logger).ReadData()
	if err != nil {
		return nil, errors.DataUnavailable(err)
	}
	table, err := DecodeFacts(data)
	if err != nil {
		return nil, errors.DataUnavailable(fmt.Errorf("%s: %w", s.path, err))
	}
	return table, nil
}
