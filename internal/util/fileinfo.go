package util

import (
	"fmt"
	"os"
	"syscall"
)

// FileInfo identifies one version of a file: a rotated or rewritten log
// changes at least one field.
type FileInfo struct {
	ModTime int64
	Size    int64
	Inode   uint64
}

// GetFileInfo returns modification time, size and inode of a file.
// Supported on Linux and macOS.
func GetFileInfo(filepath string) (FileInfo, error) {
	stat, err := os.Stat(filepath)
	if err != nil {
		return FileInfo{}, err
	}

	sysStat, ok := stat.Sys().(*syscall.Stat_t)
	if !ok {
		return FileInfo{}, fmt.Errorf("failed to get file system information: %s", filepath)
	}

	return FileInfo{
		ModTime: stat.ModTime().UnixNano(),
		Size:    stat.Size(),
		Inode:   sysStat.Ino,
	}, nil
}
