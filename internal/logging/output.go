package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OpenOutput resolves a log destination. Supported forms:
//   - "stderr" or "" writes to os.Stderr
//   - "stdout" writes to os.Stdout
//   - "file:///path/to/file" or any path containing a separator appends to
//     that file, creating parent directories as needed
//
// Closing the standard streams is a no-op.
func OpenOutput(output string) (io.WriteCloser, error) {
	switch {
	case output == "" || output == "stderr":
		return nopCloser{os.Stderr}, nil
	case output == "stdout":
		return nopCloser{os.Stdout}, nil
	case strings.HasPrefix(output, "file://"):
		return openFile(strings.TrimPrefix(output, "file://"))
	case isFilePath(output):
		return openFile(output)
	default:
		return nil, fmt.Errorf("unsupported log output: %s", output)
	}
}

func isFilePath(path string) bool {
	if strings.Contains(path, "://") {
		return false
	}
	return strings.ContainsAny(path, `/\`)
}

func openFile(filePath string) (io.WriteCloser, error) {
	dir := filepath.Dir(filePath)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	return file, nil
}
