package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// templateExt is the extension of every template file.
const templateExt = ".html"

// FilesystemLoader serves {dir}/{name}.html templates from a user directory.
// Files resolving outside dir, symlinks included, are refused.
type FilesystemLoader struct {
	dir string
}

// NewFilesystemLoader opens dir. It fails with ErrInvalidBasePath unless dir
// is a readable directory.
func NewFilesystemLoader(dir string) (*FilesystemLoader, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	abs, err := realDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	return &FilesystemLoader{dir: abs}, nil
}

// realDir returns the absolute, symlink-free form of dir after checking it
// can be listed.
func realDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err):
		return "", fmt.Errorf("directory does not exist: %s", abs)
	case err != nil:
		return "", err
	case !info.IsDir():
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return "", fmt.Errorf("cannot read directory: %v", err)
	}
	return abs, nil
}

// LoadTemplate reads {dir}/{name}.html.
func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	path, err := f.contained(name + templateExt)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(path) // #nosec G304 -- contained in f.dir
	switch {
	case os.IsNotExist(err):
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(content), nil
}

// Names lists the valid template names present in the directory, sorted.
func (f *FilesystemLoader) Names() []string {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), templateExt)
		if !ok || e.IsDir() || ValidateAssetName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// contained joins file onto the directory and rejects results that escape
// it once symlinks are followed. A missing file passes; opening it fails.
func (f *FilesystemLoader) contained(file string) (string, error) {
	path := filepath.Join(f.dir, file)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	// The separator keeps /base/dir from matching /base/direvil.
	if !strings.HasPrefix(path, f.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s escapes the templates directory", ErrPathTraversal, file)
	}
	return path, nil
}

var _ AssetLoader = (*FilesystemLoader)(nil)
