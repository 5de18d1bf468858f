package downloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	appDirPerm  os.FileMode = 0o750
	appFilePerm os.FileMode = 0o640

	// MaxFilenameLength really only accounts for NTFS.
	MaxFilenameLength = 255
)

// EnsureDir creates the directory, and its parents, if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, appDirPerm); err != nil {
		return fmt.Errorf("%w: couldn't create directory(name=%s)", err, dir)
	}
	return nil
}

// FileExists returns whether the file exists.
func FileExists(filename string) bool {
	if _, err := os.Stat(filename); err != nil {
		return false
	}
	return true
}

// Reservations guards the choice of target filenames across concurrent jobs.
//
// A name is taken when it exists on disk or is reserved by a job that has not finished yet.
// Probing and reserving happen under one lock, so two jobs never pick the same path.
type Reservations struct {
	mu   sync.Mutex
	dirs map[string]map[string]struct{}
}

func NewReservations() *Reservations {
	return &Reservations{dirs: make(map[string]map[string]struct{})}
}

// Reserve picks the name the file will be written under in dir.
//
// With skipExisting set, a taken default name means the job should be skipped and nothing is reserved.
// Otherwise the first free name of "<base>_copy<ext>", "<base>_copy1<ext>", "<base>_copy2<ext>"...
// is reserved and returned. Call Release with the same dir and name once the job is over.
func (r *Reservations) Reserve(dir, filename string, skipExisting bool) (name string, skip bool, err error) {
	filename = sanitizeFilename(filename)
	if filename == "" {
		return "", false, ErrEmptyFilename
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reserved := r.dirs[dir]
	if reserved == nil {
		reserved = make(map[string]struct{})
		r.dirs[dir] = reserved
	}
	taken := func(n string) bool {
		if _, ok := reserved[n]; ok {
			return true
		}
		return FileExists(filepath.Join(dir, n))
	}

	name = filename
	if taken(name) {
		if skipExisting {
			return name, true, nil
		}
		ext := filepath.Ext(filename)
		base := strings.TrimSuffix(filename, ext)
		name = base + "_copy" + ext
		for i := 1; taken(name); i++ {
			name = fmt.Sprintf("%s_copy%d%s", base, i, ext)
		}
	}

	reserved[name] = struct{}{}
	return name, false, nil
}

// Release forgets a reservation made by Reserve.
func (r *Reservations) Release(dir, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reserved := r.dirs[dir]
	delete(reserved, name)
	if len(reserved) == 0 {
		delete(r.dirs, dir)
	}
}

// sanitizeFilename removes characters that are invalid in Linux/Windows filenames
// and trims overly long names while keeping the extension.
func sanitizeFilename(name string) string {
	// Most of the characters are forbidden on Windows only.
	const forbiddenChars = "/<>\":\\|?*"
	for _, c := range forbiddenChars {
		name = strings.ReplaceAll(name, string(c), "")
	}
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}

	if len(name) > MaxFilenameLength {
		ext := filepath.Ext(name)
		if len(ext) >= MaxFilenameLength {
			ext = ""
		}
		name = name[:MaxFilenameLength-len(ext)] + ext
	}

	return name
}
