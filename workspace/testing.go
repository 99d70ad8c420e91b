package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// TestEnvDir is the isolated Go module used for tests inside the workspace.
const TestEnvDir = "testenv"

// CommandRunner executes an external command in dir.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (output string, exitCode int, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner. A non-zero exit status is reported through
// exitCode with a nil error; err is set only when the command could not run
// or the context expired.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return string(out), -1, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), exitErr.ExitCode(), nil
		}
		return string(out), -1, err
	}
	return string(out), 0, nil
}

// TestEnvPath returns the absolute path of the test module.
func (w *Workspace) TestEnvPath() string {
	return filepath.Join(w.dir, TestEnvDir)
}

// HasTestEnv reports whether the test module exists.
func (w *Workspace) HasTestEnv() bool {
	info, err := os.Stat(w.TestEnvPath())
	return err == nil && info.IsDir()
}

// SetupResult summarizes a test environment setup.
type SetupResult struct {
	Path     string   `json:"path"`
	Packages []string `json:"packages,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// SetupTestEnv creates the test module and fetches packages into it. Package
// install failures are reported as warnings.
func (w *Workspace) SetupTestEnv(ctx context.Context, packages []string) (SetupResult, error) {
	dir := w.TestEnvPath()
	res := SetupResult{Path: dir}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("create test env: %w", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "go.mod")); errors.Is(err, os.ErrNotExist) {
		out, code, err := w.opts.Runner.Run(ctx, dir, "go", "mod", "init", TestEnvDir)
		if err != nil {
			return res, fmt.Errorf("init test module: %w", err)
		}
		if code != 0 {
			return res, fmt.Errorf("init test module: %s", strings.TrimSpace(out))
		}
	}

	for _, pkg := range packages {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			continue
		}
		if err := w.install(ctx, dir, pkg); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("failed to install %s: %v", pkg, err))
			w.opts.Logger.Warn("workspace.testenv.install_failed", "package", pkg, "error", err)
			continue
		}
		res.Packages = append(res.Packages, pkg)
	}

	w.opts.Logger.Info("workspace.testenv.ready", "path", dir, "packages", len(res.Packages))

	return res, nil
}

func (w *Workspace) install(ctx context.Context, dir, pkg string) error {
	ctx, cancel := context.WithTimeout(ctx, w.opts.InstallTimeout)
	defer cancel()

	out, code, err := w.opts.Runner.Run(ctx, dir, "go", "get", pkg)
	if err != nil {
		return err
	}
	if code != 0 {
		return errors.New(strings.TrimSpace(out))
	}
	return nil
}

// WriteUnitTests validates test code and writes it to <name>_test.go in the
// test module, or in the workspace when no test module exists.
func (w *Workspace) WriteUnitTests(name, code string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	src, err := NormalizeGoSource(code, w.opts.PackageName)
	if err != nil {
		return "", err
	}

	dir := w.dir
	if w.HasTestEnv() {
		dir = w.TestEnvPath()
	}
	path := filepath.Join(dir, name+"_test.go")
	if err := writeFileAtomic(path, []byte(src), 0o644); err != nil {
		return "", fmt.Errorf("write tests: %w", err)
	}

	w.opts.Logger.Info("workspace.tests.written", "function", name, "file", path)

	return path, nil
}

// TestStatus is the outcome of a test run.
type TestStatus string

const (
	TestPassed TestStatus = "passed"
	TestFailed TestStatus = "failed"
	TestError  TestStatus = "error"
)

// TestResult reports a test run.
type TestResult struct {
	Status   TestStatus `json:"status"`
	Output   string     `json:"output"`
	ExitCode int        `json:"exit_code"`
	NeedsFix bool       `json:"needs_fix"`
}

// RunUnitTests runs go test over the test file and function file. With
// useTestEnv and an existing test module the function file is copied into
// the module, taking the test file's package name.
func (w *Workspace) RunUnitTests(ctx context.Context, testFile, functionFile string, useTestEnv bool) (TestResult, error) {
	testPath, err := w.Resolve(testFile)
	if err != nil {
		return TestResult{}, err
	}
	funcPath, err := w.Resolve(functionFile)
	if err != nil {
		return TestResult{}, err
	}

	if _, err := os.Stat(testPath); err != nil {
		return TestResult{}, fmt.Errorf("test file %s: %w", testFile, err)
	}
	if _, err := os.Stat(funcPath); err != nil {
		return TestResult{}, fmt.Errorf("function file %s: %w", functionFile, err)
	}

	dir := w.dir
	if useTestEnv && w.HasTestEnv() {
		dir = w.TestEnvPath()
		if funcPath, err = w.copyIntoTestEnv(testPath, funcPath); err != nil {
			return TestResult{}, err
		}
		if filepath.Dir(testPath) != dir {
			dst := filepath.Join(dir, filepath.Base(testPath))
			if err := copyFile(testPath, dst); err != nil {
				return TestResult{}, err
			}
			testPath = dst
		}
	}
	args := []string{"test", "-v", testPath, funcPath}

	runCtx, cancel := context.WithTimeout(ctx, w.opts.TestTimeout)
	defer cancel()

	start := time.Now()
	out, code, err := w.opts.Runner.Run(runCtx, dir, "go", args...)
	dur := time.Since(start)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return TestResult{
			Status:   TestError,
			Output:   fmt.Sprintf("Tests timed out after %d seconds", int(w.opts.TestTimeout.Seconds())),
			ExitCode: -1,
			NeedsFix: true,
		}, nil
	case err != nil:
		return TestResult{Status: TestError, Output: err.Error(), ExitCode: -1, NeedsFix: true}, nil
	}

	status := TestPassed
	if code != 0 {
		status = TestFailed
	}

	w.opts.Logger.Info("workspace.tests.run",
		"status", string(status),
		"exit_code", code,
		"duration_ms", dur.Milliseconds(),
	)

	return TestResult{Status: status, Output: out, ExitCode: code, NeedsFix: code != 0}, nil
}

func (w *Workspace) copyIntoTestEnv(testPath, funcPath string) (string, error) {
	testSrc, err := os.ReadFile(testPath)
	if err != nil {
		return "", fmt.Errorf("read test file: %w", err)
	}
	pkg, err := PackageName(testSrc)
	if err != nil {
		return "", err
	}

	funcSrc, err := os.ReadFile(funcPath)
	if err != nil {
		return "", fmt.Errorf("read function file: %w", err)
	}
	rewritten, err := SetPackageName(funcSrc, pkg)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(w.TestEnvPath(), filepath.Base(funcPath))
	if err := writeFileAtomic(dst, rewritten, 0o644); err != nil {
		return "", fmt.Errorf("copy function file: %w", err)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFileAtomic(dst, data, 0o644)
}
