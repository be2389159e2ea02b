package models

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// DraftSubmission is an in-progress answer persisted locally, one per
// assignment. It never leaves the device; it is destroyed once the
// submission is accepted remotely.
type DraftSubmission struct {
	AssignmentID uint        `json:"assignment_id"`
	TextAnswer   string      `json:"text_answer"`
	Files        []LocalFile `json:"files"`
	LastModified time.Time   `json:"last_modified"`
}

// LocalFile references a file still on the device, attached to a draft or a
// pending submission. It exists only until the upload succeeds or the user
// discards it.
type LocalFile struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// NewLocalFile builds a LocalFile from a path on disk, detecting the MIME
// type from content rather than trusting the extension.
func NewLocalFile(path string) (LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return LocalFile{}, fmt.Errorf("failed to stat file: %w", err)
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return LocalFile{}, fmt.Errorf("failed to detect file type: %w", err)
	}

	return LocalFile{
		URI:  path,
		Name: filepath.Base(path),
		Type: mime.String(),
		Size: info.Size(),
	}, nil
}
