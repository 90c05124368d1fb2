package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goodnatureofminers/chainindex/internal/index/errs"
)

// ErrNotFound is returned by Get when the named blob has never been written.
var ErrNotFound = errors.New("blobstore: not found")

type leaseFile struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FilesystemStore persists each named blob as a file under Dir, and each
// lease as a sidecar "<name>.lease" file holding owner+expiry as JSON. A
// process-local mutex serializes lease operations; this is sufficient for a
// single bulk-indexer/live-listener deployment sharing one data directory,
// which is the only topology the spec's leasing model assumes.
type FilesystemStore struct {
	mu  sync.Mutex
	dir string
}

// NewFilesystemStore opens (creating if necessary) a blob store rooted at dir.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create dir %s: %w", dir, err)
	}
	return &FilesystemStore{dir: dir}, nil
}

func (s *FilesystemStore) blobPath(name string) string {
	return filepath.Join(s.dir, name+".blob")
}

func (s *FilesystemStore) leasePath(name string) string {
	return filepath.Join(s.dir, name+".lease")
}

// Get implements Store.
func (s *FilesystemStore) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.blobPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", errs.ErrStorageUnavailable, name, err)
	}
	return data, nil
}

// Put implements Store.
func (s *FilesystemStore) Put(_ context.Context, name string, value []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.blobPath(name)), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir for %s: %v", errs.ErrStorageUnavailable, name, err)
	}
	tmp := s.blobPath(name) + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", errs.ErrStorageUnavailable, name, err)
	}
	if err := os.Rename(tmp, s.blobPath(name)); err != nil {
		return fmt.Errorf("%w: rename %s: %v", errs.ErrStorageUnavailable, name, err)
	}
	return nil
}

func (s *FilesystemStore) readLease(name string) (*leaseFile, error) {
	data, err := os.ReadFile(s.leasePath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read lease %s: %v", errs.ErrStorageUnavailable, name, err)
	}
	var lf leaseFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("%w: decode lease %s: %v", errs.ErrStorageUnavailable, name, err)
	}
	return &lf, nil
}

func (s *FilesystemStore) writeLease(name string, lf leaseFile) error {
	data, err := json.Marshal(lf)
	if err != nil {
		return fmt.Errorf("blobstore: encode lease %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.leasePath(name)), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir for lease %s: %v", errs.ErrStorageUnavailable, name, err)
	}
	return os.WriteFile(s.leasePath(name), data, 0o644)
}

// Acquire implements Store.
func (s *FilesystemStore) Acquire(_ context.Context, name, owner string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	existing, err := s.readLease(name)
	if err != nil {
		return err
	}
	if existing != nil && existing.Owner != owner && now.Before(existing.ExpiresAt) {
		return fmt.Errorf("%w: %s held by %s", errs.ErrLeaseHeldElsewhere, name, existing.Owner)
	}
	return s.writeLease(name, leaseFile{Owner: owner, ExpiresAt: now.Add(ttl)})
}

// Renew implements Store.
func (s *FilesystemStore) Renew(_ context.Context, name, owner string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readLease(name)
	if err != nil {
		return err
	}
	if existing == nil || existing.Owner != owner {
		return fmt.Errorf("%w: %s not held by %s", errs.ErrLeaseHeldElsewhere, name, owner)
	}
	return s.writeLease(name, leaseFile{Owner: owner, ExpiresAt: time.Now().Add(ttl)})
}

// Release implements Store.
func (s *FilesystemStore) Release(_ context.Context, name, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readLease(name)
	if err != nil {
		return err
	}
	if existing == nil || existing.Owner != owner {
		return nil
	}
	if err := os.Remove(s.leasePath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove lease %s: %v", errs.ErrStorageUnavailable, name, err)
	}
	return nil
}

var _ Store = (*FilesystemStore)(nil)
