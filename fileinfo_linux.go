//go:build linux

package logtail

import (
	"os"
	"syscall"
)

// unlinked reports whether the inode behind fi has no remaining links.
// Infos without a Stat_t (in-memory filesystems) are never unlinked.
func unlinked(fi os.FileInfo) bool {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return st.Nlink == 0
}

// sameInode reports whether a and b describe the same inode. When either side
// cannot tell, they are assumed to be the same.
func sameInode(a, b os.FileInfo) bool {
	sa, ok1 := a.Sys().(*syscall.Stat_t)
	sb, ok2 := b.Sys().(*syscall.Stat_t)
	if !ok1 || !ok2 {
		return true
	}
	return sa.Dev == sb.Dev && sa.Ino == sb.Ino
}
