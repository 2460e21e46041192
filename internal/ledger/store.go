package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	ledgerFile = "holdings.csv"
	lockFile   = "holdings.csv.lock"

	// DefaultMaxBytes bounds how large a holdings file the store will read,
	// so a corrupt or malicious file cannot cause unbounded memory growth.
	DefaultMaxBytes = 10 << 20
)

// Store persists the canonical ledger as a single whole-file CSV in a data
// directory. There are no partial updates: Load and Save move the entire
// ledger, and Update serializes a load-merge-save sequence under an
// exclusive file lock so two near-simultaneous imports cannot interleave
// and silently lose a batch.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, maxBytes: DefaultMaxBytes}
}

// Path returns the holdings file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, ledgerFile)
}

// Load reads the current ledger. A missing file is the first-run case and
// returns an empty ledger, not an error.
func (s *Store) Load() (Ledger, error) {
	path := s.Path()

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(nil)
	}
	if err != nil {
		return Ledger{}, fmt.Errorf("stat holdings: %w", err)
	}
	if info.Size() > s.maxBytes {
		return Ledger{}, fmt.Errorf("holdings file %s exceeds %d bytes", path, s.maxBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return Ledger{}, fmt.Errorf("opening holdings: %w", err)
	}
	defer f.Close()

	l, err := ReadLedger(f)
	if err != nil {
		return Ledger{}, fmt.Errorf("reading holdings %s: %w", path, err)
	}
	return l, nil
}

// Save writes the whole ledger. The write goes to a temp file first and is
// renamed into place, so a failed save leaves the previous file intact and
// the caller knows the save did not take effect.
func (s *Store) Save(l Ledger) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ledgerFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp holdings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteLedger(tmp, l); err != nil {
		tmp.Close()
		return fmt.Errorf("writing holdings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp holdings: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("replacing holdings: %w", err)
	}
	return nil
}

// Update runs fn inside the store's critical section: exclusive lock, load,
// mutate, save. If fn returns an error nothing is written and the on-disk
// ledger is untouched. The saved snapshot is returned.
func (s *Store) Update(fn func(Ledger) (Ledger, error)) (Ledger, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Ledger{}, fmt.Errorf("creating data dir: %w", err)
	}

	lock := flock.New(filepath.Join(s.dir, lockFile))
	if err := lock.Lock(); err != nil {
		return Ledger{}, fmt.Errorf("locking holdings: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck // unlock failure leaves a stale lock file only

	current, err := s.Load()
	if err != nil {
		return Ledger{}, err
	}

	next, err := fn(current)
	if err != nil {
		return Ledger{}, err
	}

	if err := s.Save(next); err != nil {
		return Ledger{}, err
	}
	return next, nil
}
