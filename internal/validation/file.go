package validation

import (
	"fmt"
	"strings"

	"github.com/noah-isme/gema-mobile-core/internal/models"
)

// MaxFileSizeBytes is the upload size ceiling, inclusive: exactly 10 MiB.
const MaxFileSizeBytes = 10 * 1024 * 1024

// AllowedFileExtensions lists the accepted upload extensions, lowercase.
var AllowedFileExtensions = []string{"pdf", "png", "jpg", "jpeg", "doc", "docx"}

// Result is the outcome of a single file check. Invalid input never produces
// a Go error; the failure is always carried in the Error message.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateFileType checks the extension after the last dot against the
// allow-set, case-insensitively. A name without a dot is treated as having
// its whole text as the extension, which never matches.
func ValidateFileType(fileName string) Result {
	ext := extensionOf(fileName)

	lowered := strings.ToLower(ext)
	for _, allowed := range AllowedFileExtensions {
		if lowered == allowed {
			return Result{Valid: true}
		}
	}

	return Result{
		Valid: false,
		Error: fmt.Sprintf("File type %q is not supported. Allowed types: %s",
			ext, strings.Join(AllowedFileExtensions, ", ")),
	}
}

// ValidateFileSize accepts sizes up to and including MaxFileSizeBytes.
func ValidateFileSize(sizeBytes int64) Result {
	if sizeBytes <= MaxFileSizeBytes {
		return Result{Valid: true}
	}

	return Result{
		Valid: false,
		Error: fmt.Sprintf("File size %.2fMB exceeds 10MB limit",
			float64(sizeBytes)/(1024*1024)),
	}
}

// ValidateFile runs the type check first and returns its result verbatim on
// failure; the size check only runs for files of an accepted type.
func ValidateFile(file models.LocalFile) Result {
	if result := ValidateFileType(file.Name); !result.Valid {
		return result
	}

	return ValidateFileSize(file.Size)
}

// ValidateFiles validates each file, positionally aligned with the input.
func ValidateFiles(files []models.LocalFile) []Result {
	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, ValidateFile(file))
	}

	return results
}

func extensionOf(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 {
		return fileName
	}

	return fileName[idx+1:]
}
