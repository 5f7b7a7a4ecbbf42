package loader

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/store"
)

// Source is the content of one or more definition sources.
type Source struct {
	Relations relation.Environment
	Queries   []string
}

// LoadFile loads the definitions file at path, picking the format from its
// extension.
func LoadFile(ctx context.Context, path string) (*Source, error) {
	if isDatabase(path) {
		return loadDatabase(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	return Parse(ctx, path, data)
}

// Parse loads definitions from data. name selects the format by extension
// and names parquet relations; "-" or an unknown extension means text.
func Parse(ctx context.Context, name string, data []byte) (*Source, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".zst":
		plain, err := decompress(data)
		if err != nil {
			return nil, withFile(err, name)
		}
		return Parse(ctx, strings.TrimSuffix(name, filepath.Ext(name)), plain)

	case ext == ".cue":
		src, err := ParseCUE(name, data)
		if err != nil {
			return nil, withFile(err, name)
		}
		return src, nil

	case ext == ".parquet":
		stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		rel, err := ReadParquet(stem, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, withFile(err, name)
		}
		return &Source{Relations: relation.Environment{stem: rel}}, nil

	case isDatabase(name):
		return parseDatabase(ctx, name, data)

	default:
		text := string(data)
		env, err := ParseDefinitions(text)
		if err != nil {
			return nil, withFile(err, name)
		}
		return &Source{Relations: env, Queries: Queries(text)}, nil
	}
}

func isDatabase(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

func loadDatabase(ctx context.Context, path string) (*Source, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, withFile(err, path)
	}
	defer s.Close()

	env, err := s.LoadRelations(ctx)
	if err != nil {
		return nil, withFile(err, path)
	}
	return &Source{Relations: env}, nil
}

// parseDatabase opens an in-memory database image (a decompressed .db.zst)
// through a temporary file.
func parseDatabase(ctx context.Context, name string, data []byte) (*Source, error) {
	f, err := os.CreateTemp("", "raq-*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("stage database %s: %w", name, err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("stage database %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("stage database %s: %w", name, err)
	}

	src, err := loadDatabase(ctx, f.Name())
	if err != nil {
		return nil, withFile(err, name)
	}
	return src, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

// Compress zstd-compresses data, producing input Parse accepts under a
// ".zst" name.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// LoadFiles loads and merges several definition files in order.
func LoadFiles(ctx context.Context, logger *slog.Logger, paths ...string) (*Source, error) {
	sources := make([]*Source, 0, len(paths))
	for _, path := range paths {
		src, err := LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Debug("definitions loaded",
			"path", path,
			"relations", len(src.Relations),
			"queries", len(src.Queries))
		sources = append(sources, src)
	}
	return Merge(logger, sources...), nil
}

// Merge combines sources. A relation defined by more than one source takes
// the last definition; queries are concatenated in order.
func Merge(logger *slog.Logger, sources ...*Source) *Source {
	out := &Source{Relations: make(relation.Environment)}
	for _, src := range sources {
		for _, name := range src.Relations.Names() {
			if _, exists := out.Relations[name]; exists {
				logger.Warn("relation redefined", "relation", name)
			}
			out.Relations[name] = src.Relations[name]
		}
		out.Queries = append(out.Queries, src.Queries...)
	}
	return out
}
