package workspace

import (
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrInvalidName is returned for function names that cannot be used as file names.
var ErrInvalidName = errors.New("invalid function name")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SyntaxError reports Go source that does not parse.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Message)
	}
	return "syntax error: " + e.Message
}

// NormalizeGoSource checks that src parses as a Go file. Snippets without a
// package clause are prefixed with "package <pkg>". The returned source is
// gofmt formatted.
func NormalizeGoSource(src, pkg string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", &SyntaxError{Message: "empty source"}
	}

	candidate := src
	if !hasPackageClause(src) {
		candidate = fmt.Sprintf("package %s\n\n%s", pkg, src)
	}

	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "", candidate, parser.AllErrors); err != nil {
		return "", toSyntaxError(err)
	}

	formatted, err := format.Source([]byte(candidate))
	if err != nil {
		return candidate, nil
	}
	return string(formatted), nil
}

func hasPackageClause(src string) bool {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", src, parser.PackageClauseOnly)
	return err == nil && f.Name != nil
}

func toSyntaxError(err error) error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return &SyntaxError{Line: list[0].Pos.Line, Message: list[0].Msg}
	}
	return &SyntaxError{Message: err.Error()}
}

// StagedFunction describes code staged for review.
type StagedFunction struct {
	Name       string `json:"function_name"`
	TempFile   string `json:"temp_file"`
	TargetFile string `json:"target_file,omitempty"`
}

// StagingPath returns the staging file for function name.
func (w *Workspace) StagingPath(name string) string {
	return filepath.Join(w.dir, name+"_temp.go")
}

// StageFunction validates code and writes it to the staging file of name.
func (w *Workspace) StageFunction(name, code, targetFile string) (StagedFunction, error) {
	if !identPattern.MatchString(name) {
		return StagedFunction{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	src, err := NormalizeGoSource(code, w.opts.PackageName)
	if err != nil {
		return StagedFunction{}, err
	}

	path := w.StagingPath(name)
	if err := writeFileAtomic(path, []byte(src), 0o644); err != nil {
		return StagedFunction{}, fmt.Errorf("stage %s: %w", name, err)
	}

	w.opts.Logger.Info("workspace.function.staged", "function", name, "temp_file", path)

	return StagedFunction{Name: name, TempFile: path, TargetFile: targetFile}, nil
}

// FinalizeFunction merges the staged code in tempFile into targetFile. A new
// target receives the staged file as is; an existing target gains the
// staged declarations and any missing imports.
func (w *Workspace) FinalizeFunction(name, targetFile, tempFile string) (string, error) {
	if tempFile == "" {
		tempFile = w.StagingPath(name)
	}
	stagedPath, err := w.Resolve(tempFile)
	if err != nil {
		return "", err
	}
	staged, err := os.ReadFile(stagedPath)
	if err != nil {
		return "", fmt.Errorf("read staged code: %w", err)
	}

	target, err := w.Resolve(targetFile)
	if err != nil {
		return "", err
	}
	existing, err := os.ReadFile(target)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := writeFileAtomic(target, staged, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", targetFile, err)
		}
	case err != nil:
		return "", fmt.Errorf("read %s: %w", targetFile, err)
	default:
		merged, err := MergeGoSource(existing, staged)
		if err != nil {
			return "", err
		}
		if err := writeFileAtomic(target, merged, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", targetFile, err)
		}
	}

	w.opts.Logger.Info("workspace.function.finalized", "function", name, "target_file", target)

	return target, nil
}

// MergeGoSource appends the declarations of addition to base, adding the
// imports base lacks. The package clause of addition is dropped.
func MergeGoSource(base, addition []byte) ([]byte, error) {
	fset := token.NewFileSet()
	baseFile, err := parser.ParseFile(fset, "base.go", base, parser.ParseComments)
	if err != nil {
		return nil, toSyntaxError(err)
	}
	addFile, err := parser.ParseFile(fset, "addition.go", addition, parser.ParseComments)
	if err != nil {
		return nil, toSyntaxError(err)
	}

	have := map[string]bool{}
	for _, imp := range baseFile.Imports {
		have[importKey(imp)] = true
	}
	var missing []string
	for _, imp := range addFile.Imports {
		if key := importKey(imp); !have[key] {
			have[key] = true
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)

	body := declarationsSource(fset, addFile, addition)

	out := string(base)
	if len(missing) > 0 {
		out = insertImports(fset, baseFile, out, missing)
	}
	out = strings.TrimRight(out, "\n") + "\n\n" + strings.TrimSpace(body) + "\n"

	formatted, err := format.Source([]byte(out))
	if err != nil {
		return []byte(out), nil
	}
	return formatted, nil
}

func importKey(imp *ast.ImportSpec) string {
	if imp.Name != nil {
		return imp.Name.Name + " " + imp.Path.Value
	}
	return imp.Path.Value
}

// declarationsSource returns the source of everything after the import block.
func declarationsSource(fset *token.FileSet, f *ast.File, src []byte) string {
	start := fset.Position(f.Name.End()).Offset
	for _, decl := range f.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			start = fset.Position(gd.End()).Offset
			continue
		}
		break
	}
	if start > len(src) {
		return ""
	}
	return string(src[start:])
}

func insertImports(fset *token.FileSet, f *ast.File, src string, imports []string) string {
	var lastImport *ast.GenDecl
	for _, decl := range f.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			lastImport = gd
		}
	}

	if lastImport != nil && lastImport.Lparen.IsValid() {
		at := fset.Position(lastImport.Rparen).Offset
		return src[:at] + "\t" + strings.Join(imports, "\n\t") + "\n" + src[at:]
	}

	block := "import (\n\t" + strings.Join(imports, "\n\t") + "\n)"
	at := fset.Position(f.Name.End()).Offset
	if lastImport != nil {
		at = fset.Position(lastImport.End()).Offset
	}
	return src[:at] + "\n\n" + block + src[at:]
}

// SetPackageName rewrites the package clause of src to name.
func SetPackageName(src []byte, name string) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", src, parser.PackageClauseOnly)
	if err != nil {
		return nil, toSyntaxError(err)
	}
	if f.Name.Name == name {
		return src, nil
	}
	start := fset.Position(f.Name.Pos()).Offset
	end := fset.Position(f.Name.End()).Offset

	out := make([]byte, 0, len(src)+len(name))
	out = append(out, src[:start]...)
	out = append(out, name...)
	out = append(out, src[end:]...)
	return out, nil
}

// PackageName returns the package clause name of src.
func PackageName(src []byte) (string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", src, parser.PackageClauseOnly)
	if err != nil {
		return "", toSyntaxError(err)
	}
	return f.Name.Name, nil
}
