package extract

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpcyrd/spotify-launcher/internal/config"
)

// Unpack extracts the tar stream r into dir. Directories, regular files,
// symlinks and hard links are created; other entry types are skipped.
// Entries may not leave dir, neither by name nor through a symlink.
func Unpack(r io.Reader, dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	if err = os.MkdirAll(root, config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrExtraction, root, err)
	}

	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("%w: read tar: %w", ErrExtraction, err)
		}

		if err = unpackEntry(tr, hdr, root); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrExtraction, hdr.Name, err)
		}
	}
}

func unpackEntry(tr *tar.Reader, hdr *tar.Header, root string) error {
	target, err := securePath(root, hdr.Name)
	if err != nil {
		return err
	}

	if err = checkParents(root, target); err != nil {
		return err
	}

	mode := fs.FileMode(hdr.Mode).Perm() //nolint:gosec // Mode comes from a verified archive.

	switch hdr.Typeflag {
	case tar.TypeDir:
		if info, err := os.Lstat(target); err == nil && info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("directory %s is a symlink", target)
		}

		if err = os.MkdirAll(target, mode|0o700); err != nil {
			return err
		}

		return os.Chmod(target, mode|0o700)
	case tar.TypeReg:
		return writeFile(tr, target, mode)
	case tar.TypeSymlink:
		if err = replaceable(target); err != nil {
			return err
		}

		return os.Symlink(hdr.Linkname, target)
	case tar.TypeLink:
		source, err := securePath(root, hdr.Linkname)
		if err != nil {
			return err
		}

		if err = checkParents(root, source); err != nil {
			return err
		}

		if err = replaceable(target); err != nil {
			return err
		}

		return os.Link(source, target)
	default:
		return nil
	}
}

func writeFile(r io.Reader, target string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), config.DefaultDirPermissions); err != nil {
		return err
	}

	if err := replaceable(target); err != nil {
		return err
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return err
	}

	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}

// replaceable removes a non-directory at target so it can be recreated.
func replaceable(target string) error {
	info, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(filepath.Dir(target), config.DefaultDirPermissions)
	}

	if err != nil {
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory", target)
	}

	return os.Remove(target)
}

// securePath joins name to root and rejects absolute names and escapes.
func securePath(root, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute path %q", name)
	}

	target := filepath.Join(root, name)

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the destination", name)
	}

	return target, nil
}

// checkParents rejects targets below a symlink inside root.
func checkParents(root, target string) error {
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}

	current := root

	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)

		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		if err != nil {
			return err
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("parent %s is a symlink", current)
		}
	}

	return nil
}
