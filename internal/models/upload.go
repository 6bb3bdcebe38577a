package models

// UploadStatusStarted is the only upload status the backend uses to signal success.
const UploadStatusStarted = "started"

// UploadResponse is the body of POST upload.
type UploadResponse struct {
	TaskID  string `json:"task_id"`
	DocID   int64  `json:"doc_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Started reports whether the backend accepted the document for processing.
func (r *UploadResponse) Started() bool {
	return r != nil && r.Status == UploadStatusStarted
}
