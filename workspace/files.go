package workspace

import (
	"fmt"
	"os"
	"sort"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// ReadFile returns the content of the file at p (relative to the project directory).
func (w *Workspace) ReadFile(p string) (string, error) {
	path, err := w.Resolve(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// ListDirectory lists the entries of dir sorted by name.
func (w *Workspace) ListDirectory(dir string) ([]Entry, error) {
	if dir == "" {
		dir = "."
	}
	path, err := w.Resolve(dir)
	if err != nil {
		return nil, err
	}
	items, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		e := Entry{Name: item.Name(), IsDir: item.IsDir()}
		if info, err := item.Info(); err == nil && !item.IsDir() {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// WriteFile writes content to p, creating parent directories.
func (w *Workspace) WriteFile(p, content string) (string, error) {
	path, err := w.Resolve(p)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return path, nil
}

// Files lists the regular files directly inside the workspace directory,
// skipping hidden files.
func (w *Workspace) Files() ([]Entry, error) {
	entries, err := w.ListDirectory(w.dir)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.IsDir || (len(e.Name) > 0 && e.Name[0] == '.') {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
