package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Registry is the per-run on-disk set of live child process ids, one id per
// line. It is advisory bookkeeping for external orphan-cleanup tooling, not a
// mutual-exclusion primitive.
type Registry struct {
	mu   sync.Mutex
	path string
}

// New prepares the registry file for a run, removing any stale file left by a
// previous run with the same id.
func New(folder, runID string) (*Registry, error) {
	folder = strings.TrimSpace(folder)
	runID = strings.TrimSpace(runID)
	if folder == "" || runID == "" {
		return nil, errors.New("pid registry requires folder and run id")
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create registry folder: %w", err)
	}
	path := filepath.Join(folder, "framerip-"+runID+".pids")
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale registry: %w", err)
	}
	return &Registry{path: path}, nil
}

// Open attaches to an existing registry file, for cleanup tooling.
func Open(path string) *Registry {
	return &Registry{path: path}
}

// Path returns the backing file location.
func (r *Registry) Path() string {
	return r.path
}

// Register records a live child pid.
func (r *Registry) Register(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pids, err := r.load()
	if err != nil {
		return err
	}
	for _, existing := range pids {
		if existing == pid {
			return nil
		}
	}
	pids = append(pids, pid)
	return r.store(pids)
}

// Unregister removes a pid from the registry. Unregistering an absent id is a
// no-op, never an error.
func (r *Registry) Unregister(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pids, err := r.load()
	if err != nil {
		return err
	}
	kept := pids[:0]
	for _, existing := range pids {
		if existing != pid {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(pids) {
		return nil
	}
	if len(kept) == 0 {
		if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove empty registry: %w", err)
		}
		return nil
	}
	return r.store(kept)
}

// PIDs returns the ids currently recorded, in file order.
func (r *Registry) PIDs() ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *Registry) load() ([]int, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pid registry: %w", err)
	}
	var pids []int
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			// Foreign lines are preserved-by-skip rather than treated
			// as corruption; the registry is advisory.
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

func (r *Registry) store(pids []int) error {
	var b strings.Builder
	for _, pid := range pids {
		b.WriteString(strconv.Itoa(pid))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(r.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write pid registry: %w", err)
	}
	return nil
}
