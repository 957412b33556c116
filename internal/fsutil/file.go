package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const defaultFileMode fs.FileMode = 0o600

// ReadFile takes the virtual file system interface fs.FS and fully reads the contents of the file
func ReadFile(fsys fs.FS, fileName string) ([]byte, error) {
	b, err := fs.ReadFile(fsys, fileName)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", fileName, err)
	}

	return b, nil
}

// ReadPath reads a file addressed by an OS path through ReadFile
func ReadPath(path string) ([]byte, error) {
	return ReadFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// WriteFile writes data into a temporary file next to fileName and renames it over fileName,
// so readers see either the old or the new content. The mode of an existing file is kept
func WriteFile(fileName string, data []byte) (err error) {
	mode := defaultFileMode

	info, err := os.Stat(fileName)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", fileName, err)
		}
	}

	if info != nil {
		mode = info.Mode().Perm()
	}

	dir, base := filepath.Split(fileName)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmpName, err)
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}

	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err = os.Rename(tmpName, fileName); err != nil {
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}

	return nil
}
