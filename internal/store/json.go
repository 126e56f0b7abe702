package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// jsonDocument is the on-disk layout: {"urls": {"<agency>": ["<url>", ...]}}.
type jsonDocument struct {
	URLs model.SeenURLs `json:"urls"`
}

// JSONStore keeps the whole seen-URL map in a single JSON file. Saves write a
// sibling temp file and rename it over the target.
type JSONStore struct {
	fs   afero.Fs
	path string
}

// NewJSON creates a JSONStore on the OS filesystem.
func NewJSON(path string) *JSONStore {
	return NewJSONFs(afero.NewOsFs(), path)
}

// NewJSONFs creates a JSONStore on an arbitrary afero filesystem.
func NewJSONFs(fs afero.Fs, path string) *JSONStore {
	return &JSONStore{fs: fs, path: path}
}

// Migrate ensures the parent directory exists.
func (s *JSONStore) Migrate(_ context.Context) error {
	dir := filepath.Dir(s.path)
	return eris.Wrapf(s.fs.MkdirAll(dir, 0o755), "store: json: create dir %s", dir)
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) Load(_ context.Context) (model.SeenURLs, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if os.IsNotExist(err) {
		return model.SeenURLs{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: json: read %s", s.path)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return s.quarantine(err)
	}
	if doc.URLs == nil {
		doc.URLs = model.SeenURLs{}
	}
	return doc.URLs, nil
}

// quarantine moves an undecodable state file to <path>.corrupt so the next
// save starts from a fresh file.
func (s *JSONStore) quarantine(decodeErr error) (model.SeenURLs, error) {
	aside := s.path + ".corrupt"
	if err := s.fs.Rename(s.path, aside); err != nil {
		return nil, eris.Wrapf(decodeErr, "store: json: decode %s (move aside failed: %v)", s.path, err)
	}
	zap.L().Warn("store: json: state file is corrupt, moved aside",
		zap.String("path", s.path),
		zap.String("moved_to", aside),
		zap.Error(decodeErr),
	)
	return model.SeenURLs{}, nil
}

func (s *JSONStore) Merge(ctx context.Context, urls model.SeenURLs) error {
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return s.write(existing.Union(urls))
}

func (s *JSONStore) write(urls model.SeenURLs) error {
	data, err := json.MarshalIndent(jsonDocument{URLs: urls}, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: json: encode")
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "store: json: create dir")
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "store: json: write %s", tmp)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return eris.Wrapf(err, "store: json: rename %s", tmp)
	}
	return nil
}
