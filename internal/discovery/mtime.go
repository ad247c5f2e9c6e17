package discovery

import (
	"os"
	"path/filepath"
	"sync"
)

// MtimeStore tracks, per directory, the most recent "effective mtime" the
// walker observed on a previous pass: the latest modification time across
// that directory and everything beneath it. A subsequent scan compares the
// filesystem's current effective mtime for a directory against the stored
// value to decide whether the directory needs to be revisited at all.
//
// This is an mtime ceiling, not a deletion detector: a directory whose
// effective mtime hasn't advanced might still have had a file deleted from
// it, which MtimeStore cannot observe. Callers that need to notice
// deletions must re-walk from a clean store.
type MtimeStore struct {
	mu     sync.Mutex
	values map[string]int64 // absolute dir path -> unix nanos
}

// NewMtimeStore returns an empty MtimeStore.
func NewMtimeStore() *MtimeStore {
	return &MtimeStore{values: make(map[string]int64)}
}

// Changed reports whether dir's current effective mtime is newer than the
// value recorded for it on a previous call to Record, and returns the
// current effective mtime so the caller can pass it straight to Record.
// A directory seen for the first time is always reported changed.
func (s *MtimeStore) Changed(dir string) (changed bool, effective int64, err error) {
	effective, err = effectiveMtime(dir)
	if err != nil {
		return false, 0, err
	}

	s.mu.Lock()
	prev, ok := s.values[dir]
	s.mu.Unlock()

	if !ok || effective > prev {
		return true, effective, nil
	}
	return false, effective, nil
}

// Record stores effective as the known effective mtime for dir.
func (s *MtimeStore) Record(dir string, effective int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[dir] = effective
}

// Reset discards all recorded mtimes, forcing the next scan to treat every
// directory as changed.
func (s *MtimeStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]int64)
}

// effectiveMtime computes the effective modification time of dir: the
// maximum mtime across dir itself, its direct file entries, and the
// effective mtime of every direct subdirectory, recursively (.git
// subtrees are skipped). It has no early exit: every entry in the subtree
// is stat'ed on each call, whatever the previously recorded value.
func effectiveMtime(dir string) (int64, error) {
	info, err := os.Lstat(dir)
	if err != nil {
		return 0, err
	}
	latest := info.ModTime().UnixNano()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if entry.Name() == ".git" {
				continue
			}
			sub, err := effectiveMtime(full)
			if err != nil {
				continue
			}
			if sub > latest {
				latest = sub
			}
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if m := fi.ModTime().UnixNano(); m > latest {
			latest = m
		}
	}

	return latest, nil
}
