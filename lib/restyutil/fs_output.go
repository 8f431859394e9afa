package restyutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemOutput dumps each exchange to <dir>/<message id>. Dumps from a
// previous run are removed when it is created.
type FilesystemOutput struct {
	dir string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	if err := os.RemoveAll(dir); err != nil {
		return FilesystemOutput{}, fmt.Errorf("clear dump dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return FilesystemOutput{}, fmt.Errorf("create dump dir: %w", err)
	}
	return FilesystemOutput{dir: dir}, nil
}

func (o FilesystemOutput) Write(id, contents string) error {
	return os.WriteFile(filepath.Join(o.dir, id), []byte(contents), 0o644)
}
