package leader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileElector implements the lease as a JSON file on a shared volume. The
// holder refreshes the expiry on every Acquire; a standby takes over once
// the recorded expiry has passed.
type FileElector struct {
	path string
	id   string
	ttl  time.Duration
	now  func() time.Time
}

type fileLease struct {
	HolderID  string    `json:"holder_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewFileElector(path string, ttl time.Duration) *FileElector {
	return &FileElector{
		path: path,
		id:   instanceID(),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (f *FileElector) Acquire(context.Context) (bool, error) {
	lease, err := f.read()
	if err != nil {
		return false, err
	}
	now := f.now()
	if lease != nil && lease.HolderID != f.id && now.Before(lease.ExpiresAt) {
		return false, nil
	}
	if err := f.write(fileLease{HolderID: f.id, ExpiresAt: now.Add(f.ttl)}); err != nil {
		return false, err
	}
	// Re-read to catch a concurrent takeover racing the rename.
	lease, err = f.read()
	if err != nil {
		return false, err
	}
	return lease != nil && lease.HolderID == f.id, nil
}

func (f *FileElector) Release(context.Context) error {
	lease, err := f.read()
	if err != nil || lease == nil || lease.HolderID != f.id {
		return err
	}
	return os.Remove(f.path)
}

func (f *FileElector) read() (*fileLease, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lease: %w", err)
	}
	var lease fileLease
	if err := json.Unmarshal(data, &lease); err != nil {
		// A corrupt lease file is treated as absent so the cluster can
		// recover without manual cleanup.
		return nil, nil
	}
	return &lease, nil
}

func (f *FileElector) write(lease fileLease) error {
	data, err := json.Marshal(lease)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write lease: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("commit lease: %w", err)
	}
	return nil
}

// EnsureLeaseDir creates the lease file's parent directory.
func EnsureLeaseDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
