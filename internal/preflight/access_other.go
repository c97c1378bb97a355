//go:build !unix

package preflight

import (
	"os"
	"path/filepath"
)

func accessReadWrite(path string) error {
	f, err := os.CreateTemp(path, ".pmtm-access-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}
