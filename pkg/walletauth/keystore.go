package walletauth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

var (
	// ErrKeyNotFound indicates the key does not exist in storage.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidPermissions indicates the key file is readable by other
	// users. File mode must be 0600.
	ErrInvalidPermissions = errors.New("insecure file permissions: key file accessible to other users")
)

// KeyStore provides access to the wallet private key. Implementations
// must be safe for concurrent use.
type KeyStore interface {
	// Load loads the private key from storage.
	Load() (ed25519.PrivateKey, error)

	// Save saves a private key to storage.
	Save(key ed25519.PrivateKey) error

	// Exists returns true if a key exists in storage.
	Exists() bool

	// Path returns the storage path (for display purposes).
	Path() string
}

// FileKeyStore stores the wallet keypair in the keypair.json array
// format, enforcing 0600 permissions to protect key confidentiality.
type FileKeyStore struct {
	path string
}

// NewFileKeyStore creates a file-based key store at the given path.
func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

// Load reads and validates the keypair file. Fails if the file is
// missing, malformed, or has insecure permissions.
func (s *FileKeyStore) Load() (ed25519.PrivateKey, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrKeyNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to stat key file: %w", err)
	}

	// Windows has no Unix permission bits; rely on the profile ACL.
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
		return nil, fmt.Errorf("%w: %s has mode %04o, want 0600", ErrInvalidPermissions, s.path, info.Mode().Perm())
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	return LoadKeypairJSON(data)
}

// Save writes the keypair file with 0600 permissions, creating parent
// directories as needed.
func (s *FileKeyStore) Save(key ed25519.PrivateKey) error {
	data, err := MarshalKeypairJSON(key)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create key directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// Exists returns true if a key file exists.
func (s *FileKeyStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the key file path.
func (s *FileKeyStore) Path() string {
	return s.path
}
