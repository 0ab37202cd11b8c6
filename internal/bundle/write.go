package bundle

import (
	"fmt"
	"os"
	"path/filepath"
)

// ChunkSize bounds each write of the output file.
const ChunkSize = 1 << 20

// WriteChunked writes data to path in chunks of at most chunkSize bytes.
// The data goes to a temporary file in the same directory that replaces path
// only once fully written, so a failed run leaves no partial output.
func WriteChunked(path string, data []byte, chunkSize int) (err error) {
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	for off := 0; off < len(data); off += chunkSize {
		end := min(off+chunkSize, len(data))
		if _, err = f.Write(data[off:end]); err != nil {
			return fmt.Errorf("writing %s: %w", tmp, err)
		}
	}
	if err = f.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}
