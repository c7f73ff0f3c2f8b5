package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// ConfigFileName is the project configuration file looked up by FindConfig.
const ConfigFileName = "nodeproto.toml"

// FindConfig walks up from start to locate nodeproto.toml. start may name a
// file, in which case the search begins in its directory.
func FindConfig(fsys billy.Filesystem, start string) (path string, ok bool, err error) {
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, statErr := fsys.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := fsys.Stat(candidate); err == nil {
			if !info.IsDir() {
				return candidate, true, nil
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindProjectRoot returns the directory containing nodeproto.toml, if any.
func FindProjectRoot(fsys billy.Filesystem, start string) (root string, ok bool, err error) {
	configPath, ok, err := FindConfig(fsys, start)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(configPath), true, nil
}
