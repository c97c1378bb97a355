//go:build unix

package fileutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// IsWritable reports whether path may be written. A file with no write bit in
// its mode is read-only even for root; otherwise the kernel decides, so
// ownership, group membership, ACLs, and read-only mounts are all taken into
// account.
func IsWritable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.Mode().Perm()&0o222 == 0 {
		return false
	}
	return unix.Access(path, unix.W_OK) == nil
}
