//go:build !unix

package fileutil

import "os"

// IsWritable reports whether path carries an owner write bit. On Windows this
// reflects the read-only file attribute.
func IsWritable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0o200 != 0
}
