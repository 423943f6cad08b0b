package plan

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LockEntry records the names assigned to one declaration.
type LockEntry struct {
	// Key is the declaration key (namespace::owner::ident).
	Key     string
	Bridge  string
	Managed string
}

// LockFile pins the names of a previous run so re-generation can detect
// drift.
type LockFile struct {
	Entries []*LockEntry
	index   map[string]*LockEntry // key → entry
}

// NewLockFile creates an empty lock file.
func NewLockFile() *LockFile {
	return &LockFile{index: make(map[string]*LockEntry)}
}

// LockFromPlan records every function of p.
func LockFromPlan(p *Plan) *LockFile {
	lf := NewLockFile()
	for _, f := range p.Functions {
		lf.Set(f.Key, f.BridgeName, f.ManagedName)
	}
	return lf
}

// Lookup returns the entry for key, or nil.
func (lf *LockFile) Lookup(key string) *LockEntry {
	if lf.index == nil {
		return nil
	}
	return lf.index[key]
}

// Set adds or updates an entry.
func (lf *LockFile) Set(key, bridge, managed string) {
	if lf.index == nil {
		lf.index = make(map[string]*LockEntry)
	}
	if existing, ok := lf.index[key]; ok {
		existing.Bridge = bridge
		existing.Managed = managed
		return
	}
	entry := &LockEntry{Key: key, Bridge: bridge, Managed: managed}
	lf.Entries = append(lf.Entries, entry)
	lf.index[key] = entry
}

// Drift is a name that changed between the lock file and a new run.
type Drift struct {
	Key   string
	Field string // "bridge" or "managed"
	Was   string
	Now   string
}

func (d Drift) String() string {
	return fmt.Sprintf("%s: %s name changed from %s to %s", d.Key, d.Field, d.Was, d.Now)
}

// Compare returns the entries of next whose names differ from lf.
// Declarations that are new in next are not drift.
func (lf *LockFile) Compare(next *LockFile) []Drift {
	var drift []Drift
	for _, e := range next.Entries {
		old := lf.Lookup(e.Key)
		if old == nil {
			continue
		}
		if old.Bridge != e.Bridge {
			drift = append(drift, Drift{Key: e.Key, Field: "bridge", Was: old.Bridge, Now: e.Bridge})
		}
		if old.Managed != e.Managed {
			drift = append(drift, Drift{Key: e.Key, Field: "managed", Was: old.Managed, Now: e.Managed})
		}
	}
	return drift
}

// ReadLockFile reads a lock file. Returns an empty LockFile if the file
// does not exist.
func ReadLockFile(path string) (*LockFile, error) {
	lf := NewLockFile()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return lf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s:%d: expected 3 fields (key bridge managed), got %d", path, lineNum, len(fields))
		}

		lf.Set(fields[0], fields[1], fields[2])
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}

	return lf, nil
}

// WriteLockFile writes the lock file to disk. An empty lock file removes
// the file.
func WriteLockFile(path string, lf *LockFile) error {
	if len(lf.Entries) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing empty lock file: %w", err)
		}
		return nil
	}

	var sb strings.Builder
	sb.WriteString("# bindplan.lock, generated by bindplan; do not edit\n")
	for _, e := range lf.Entries {
		fmt.Fprintf(&sb, "%s %s %s\n", e.Key, e.Bridge, e.Managed)
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	return nil
}
