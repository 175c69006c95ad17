package paths

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Normalize converts a path to use forward slashes (for logging and comparison)
func Normalize(p string) string {
	return strings.ReplaceAll(filepath.Clean(p), string(filepath.Separator), "/")
}

// URLBase returns the file name a downloader would save url as:
// the last path segment, without query or fragment
func URLBase(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(rawURL)
}

// Exists reports whether p exists
func Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Size returns the size of the file at p
func Size(p string) (int64, error) {
	info, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// FindByExt walks root recursively and returns every regular file whose
// extension matches ext (case-insensitive), in lexical order
func FindByExt(root, ext string) ([]string, error) {
	ext = strings.ToLower(ext)
	var found []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(d.Name())) == ext {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}

// SameDir reports whether a and b resolve to the same directory
func SameDir(a, b string) bool {
	ra, errA := resolve(a)
	rb, errB := resolve(b)
	if errA != nil || errB != nil {
		return samePath(filepath.Clean(a), filepath.Clean(b))
	}
	return samePath(ra, rb)
}

func samePath(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// FindActual finds the actual case of a file on case-insensitive filesystems
func FindActual(targetPath string) (string, error) {
	if _, err := os.Stat(targetPath); err == nil {
		return targetPath, nil
	}

	dir := filepath.Dir(targetPath)
	filename := filepath.Base(targetPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return targetPath, nil
	}

	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), filename) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return targetPath, nil
}
