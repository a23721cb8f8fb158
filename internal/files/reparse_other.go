//go:build !windows

package files

// Reparse points are an NTFS concept; symlinks are caught via Lstat elsewhere.
func isReparsePoint(string) (bool, error) {
	return false, nil
}
