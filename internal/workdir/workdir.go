// Package workdir manages the isolated temporary directories in which
// external simulation tools run.
//
// Each run gets tmp-simulator-<user>-<id>/<package name> under the system
// temp directory. The package directory name is carried over so a package
// at xx/Buildings simulates in .../Buildings, which matters to tools that
// resolve the package by directory name.
package workdir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const prefix = "tmp-simulator-"

// ErrUnsafeDelete is returned when a delete target does not look like a
// directory this package created. The guard keeps a corrupted path from
// wiping anything else.
var ErrUnsafeDelete = errors.New("workdir: refusing to delete directory outside " + prefix + "*")

// ErrBadPackage is returned by Create when the package path is missing or
// not a directory.
var ErrBadPackage = errors.New("workdir: package path does not exist or is not a directory")

// Dir is one temporary working directory.
type Dir struct {
	// Root is the tmp-simulator-* directory.
	Root string
	// Path is the package directory inside Root where the tool runs.
	Path string

	packagePath string
}

// Create validates packagePath and allocates a fresh working directory for
// it. The directory tree is not populated yet; call Populate to copy the
// package in, or mkdir Path directly for tools that resolve the package
// through an environment path instead.
func Create(packagePath string) (*Dir, error) {
	abs, err := filepath.Abs(packagePath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrBadPackage, packagePath)
	}

	root := filepath.Join(os.TempDir(), prefix+username()+"-"+uuid.NewString())
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	return &Dir{
		Root:        root,
		Path:        filepath.Join(root, filepath.Base(abs)),
		packagePath: abs,
	}, nil
}

func username() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		// Windows usernames carry a domain separator.
		name := u.Username
		if i := strings.LastIndexByte(name, '\\'); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return "user"
}

// Populate copies the package tree into the working directory, skipping
// version control metadata.
func (d *Dir) Populate() error {
	return CopyTree(d.packagePath, d.Path, func(name string) bool {
		return name == ".git" || name == ".svn"
	})
}

// Mkdir creates the package directory without copying anything into it.
func (d *Dir) Mkdir() error {
	return os.MkdirAll(d.Path, 0o755)
}

// Remove deletes the whole working directory tree. Removing a Dir whose
// root escaped the tmp-simulator naming scheme fails with ErrUnsafeDelete.
func (d *Dir) Remove() error {
	if !strings.Contains(filepath.Base(d.Root), prefix) {
		return fmt.Errorf("%w: %s", ErrUnsafeDelete, d.Root)
	}
	return os.RemoveAll(d.Root)
}

// RemoveStale deletes every leftover working directory belonging to the
// current user under the system temp directory, typically orphans from
// killed or crashed runs. It returns the paths it removed.
func RemoveStale() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), prefix+username()+"-*"))
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, dir := range matches {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, err
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

// CollectNewFiles copies regular files under the working directory that were
// modified at or after since into dst, flattening the tree. It returns the
// destination paths. This is how simulation outputs travel back to the
// output directory without tracking what the tool chose to write.
func (d *Dir) CollectNewFiles(since time.Time, dst string) ([]string, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, err
	}

	var collected []string
	err := filepath.WalkDir(d.Path, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(since) {
			return nil
		}
		target := filepath.Join(dst, entry.Name())
		if err := copyFile(path, target); err != nil {
			return err
		}
		collected = append(collected, target)
		return nil
	})
	if err != nil {
		return collected, err
	}
	return collected, nil
}

// CopyTree recursively copies src into dst. Entries for which ignore returns
// true are skipped along with their subtrees.
func CopyTree(src, dst string, ignore func(name string) bool) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	for _, entry := range entries {
		if ignore != nil && ignore(entry.Name()) {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := CopyTree(srcPath, dstPath, ignore); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DeleteFiles removes each listed file if it exists. Missing files are not
// an error; the list describes what a previous run may have left behind.
func DeleteFiles(dir string, patterns []string) error {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return err
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}
