package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moodyshaheen/protfolio/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// filename collisions are already improbable; a handful of retries makes
// them impossible to observe.
const maxNameAttempts = 5

// DiskStore keeps assets as plain files under a single directory.
type DiskStore struct {
	dir      string
	maxBytes int64
	logger   zerolog.Logger
}

func NewDiskStore(dir string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.NewAssetStoreUnavailableError("init", err)
	}
	logger := log.With().Str("store", "disk").Str("dir", dir).Logger()
	return &DiskStore{dir: dir, maxBytes: maxBytes, logger: logger}, nil
}

// Dir returns the directory assets are written to, for static serving.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) Save(upload Upload) (string, error) {
	if err := validateUpload(upload, s.maxBytes); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(upload.OriginalName))
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := newFilename(ext)
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", errs.NewAssetStoreUnavailableError("save", err)
		}

		if _, err := f.Write(upload.Bytes); err != nil {
			f.Close()
			os.Remove(path)
			return "", errs.NewAssetStoreUnavailableError("save", err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			os.Remove(path)
			return "", errs.NewAssetStoreUnavailableError("save", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", errs.NewAssetStoreUnavailableError("save", err)
		}

		s.logger.Debug().Str("ref", RefPrefix+name).Int("bytes", len(upload.Bytes)).Msg("stored asset")
		return RefPrefix + name, nil
	}

	return "", errs.NewAssetStoreUnavailableError("save", fmt.Errorf("could not allocate a unique filename after %d attempts", maxNameAttempts))
}

func (s *DiskStore) Remove(ref string) error {
	name, ok := refToFilename(ref)
	if !ok {
		// unusable references have nothing behind them to free
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errs.NewAssetStoreUnavailableError("remove", err)
	}

	s.logger.Debug().Str("ref", ref).Msg("removed asset")
	return nil
}

func (s *DiskStore) Resolve(ref string) (string, bool) {
	name, ok := refToFilename(ref)
	if !ok {
		return "", false
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func (s *DiskStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errs.NewAssetStoreUnavailableError("list", err)
	}

	refs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		refs = append(refs, RefPrefix+entry.Name())
	}
	return refs, nil
}
