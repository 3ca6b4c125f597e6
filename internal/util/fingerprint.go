package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const fingerprintTail = 2048

// CalculateFileFingerprint returns the CRC32 of the last 2KB of a file.
// Appends to a log always change it.
func CalculateFileFingerprint(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}

	readSize := min(stat.Size(), int64(fingerprintTail))
	if _, err := file.Seek(-readSize, io.SeekEnd); err != nil {
		return "", err
	}

	data := make([]byte, readSize)
	if _, err := io.ReadFull(file, data); err != nil {
		return "", err
	}

	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data)), nil
}
