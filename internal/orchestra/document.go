package orchestra

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/colonyops/orchestra/internal/core/backlog"
)

// DocumentReader loads the raw text of a backlog document.
// Implementations return backlog.ErrDocumentNotFound when the path does not exist.
type DocumentReader interface {
	ReadDocument(ctx context.Context, path string) (string, error)
}

// FileReader reads backlog documents from the local filesystem.
type FileReader struct{}

func (FileReader) ReadDocument(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", backlog.ErrDocumentNotFound, path)
		}
		return "", fmt.Errorf("read backlog document: %w", err)
	}
	return string(data), nil
}
