package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/agentcrew/logging"
)

// DefaultDir is the workspace directory used when none is configured.
const DefaultDir = ".agent_workspace"

// Options configures a Workspace.
type Options struct {
	// BaseDir is the project directory relative paths are resolved against.
	BaseDir string
	// Runner executes external commands (go mod init, go get, go test).
	Runner CommandRunner
	// TestTimeout bounds a single test run.
	TestTimeout time.Duration
	// InstallTimeout bounds a single package installation.
	InstallTimeout time.Duration
	// PackageName is used for Go snippets that lack a package clause.
	PackageName string
	Logger      logging.Logger
}

// Workspace is the scratch directory plus the project directory the tools operate on.
type Workspace struct {
	dir   string
	base  string
	tasks *TaskStore
	opts  Options
}

// New creates (if needed) the workspace directory dir. A relative dir is
// resolved against Options.BaseDir.
func New(dir string, optFns ...func(o *Options)) (*Workspace, error) {
	opts := Options{
		BaseDir:        ".",
		Runner:         ExecRunner{},
		TestTimeout:    30 * time.Second,
		InstallTimeout: 120 * time.Second,
		PackageName:    "main",
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if dir == "" {
		dir = DefaultDir
	}

	base, err := filepath.Abs(opts.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}

	return &Workspace{
		dir:   dir,
		base:  base,
		tasks: NewTaskStore(filepath.Join(dir, TaskFileName)),
		opts:  opts,
	}, nil
}

// Dir returns the absolute workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// BaseDir returns the absolute project directory.
func (w *Workspace) BaseDir() string { return w.base }

// Tasks returns the workspace's task store.
func (w *Workspace) Tasks() *TaskStore { return w.tasks }

// ErrOutsideWorkspace is returned for paths that leave both the project
// directory and the workspace directory.
var ErrOutsideWorkspace = errors.New("path is outside the workspace")

// Resolve maps p to an absolute path; relative paths are taken from the
// project directory. The result must stay inside the project directory or the
// workspace directory.
func (w *Workspace) Resolve(p string) (string, error) {
	path := filepath.Clean(p)
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.base, path)
	}
	if within(w.base, path) || within(w.dir, path) {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, p)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path so readers never observe a partial file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
