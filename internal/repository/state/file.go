package state

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/kpcyrd/spotify-launcher/internal/config"
	domain "github.com/kpcyrd/spotify-launcher/internal/domain/install"
)

// Repository defines persistence operations for the install state.
type Repository interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

// FileRepository persists the install state to a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("state not found")

// fileState is the on-disk layout.
type fileState struct {
	Version         string    `yaml:"version"`
	LastUpdateCheck time.Time `yaml:"last_update_check"`
}

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the state from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var stored fileState
	if err = yaml.Unmarshal(contents, &stored); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return &domain.State{
		Version:         stored.Version,
		LastUpdateCheck: stored.LastUpdateCheck,
	}, nil
}

// Save replaces the state file with state.
func (r *FileRepository) Save(_ context.Context, state *domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(&fileState{
		Version:         state.Version,
		LastUpdateCheck: state.LastUpdateCheck.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	// Apply renames the current file aside, so there has to be one.
	if _, err = os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(r.path, nil, config.DefaultFilePermissions); err != nil {
			return fmt.Errorf("create state file: %w", err)
		}
	}

	sum := sha256.Sum256(data)

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: config.DefaultFilePermissions,
		Checksum:   sum[:],
		Hash:       crypto.SHA256,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	for _, oldPath := range []string{
		r.path + ".old",
		filepath.Join(filepath.Dir(r.path), "."+filepath.Base(r.path)+".old"),
	} {
		if _, err = os.Stat(oldPath); err == nil {
			_ = os.Remove(oldPath)
		}
	}

	return nil
}
