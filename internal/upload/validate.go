package upload

import "fmt"

const (
	// PDFContentType is the only MIME type accepted for upload.
	PDFContentType = "application/pdf"

	// MaxFileSize is the largest accepted document, 50 MiB.
	MaxFileSize int64 = 50 * 1024 * 1024

	MsgOnlyPDF      = "Only PDF files are allowed"
	MsgUploadFailed = "Upload failed"
)

// Rejection reasons, also used as metric labels.
const (
	ReasonType = "type"
	ReasonSize = "size"
)

// ValidationError describes a file refused before any network call.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SizeMessage is the rejection text for files larger than max bytes.
func SizeMessage(max int64) string {
	return fmt.Sprintf("File size must be less than %dMB", max/(1024*1024))
}

// Validate checks a candidate's declared MIME type and size. The type check
// runs first, so a non-PDF is rejected whatever its size.
func Validate(contentType string, size, max int64) error {
	if max <= 0 {
		max = MaxFileSize
	}
	if contentType != PDFContentType {
		return &ValidationError{Reason: ReasonType, Message: MsgOnlyPDF}
	}
	if size > max {
		return &ValidationError{Reason: ReasonSize, Message: SizeMessage(max)}
	}
	return nil
}
