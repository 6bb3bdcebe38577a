// Package models contains the wire types shared with the knowledge-base backend.
package models

// DocumentStats is the per-document row of the statistics snapshot.
type DocumentStats struct {
	DocID              int64  `json:"doc_id" msgpack:"doc_id"`
	Title              string `json:"title" msgpack:"title"`
	TotalChunks        int    `json:"total_chunks" msgpack:"total_chunks"`
	TotalEntities      int    `json:"total_entities" msgpack:"total_entities"`
	TotalRelationships int    `json:"total_relationships" msgpack:"total_relationships"`
	CreatedAt          string `json:"created_at" msgpack:"created_at"`
	FileType           string `json:"file_type" msgpack:"file_type"`
	Status             string `json:"status" msgpack:"status"`
}

// KBStats is the aggregate statistics snapshot of the knowledge base.
type KBStats struct {
	TotalDocuments     int             `json:"total_documents"`
	TotalChunks        int             `json:"total_chunks"`
	TotalEntities      int             `json:"total_entities"`
	TotalRelationships int             `json:"total_relationships"`
	Documents          []DocumentStats `json:"documents"`
	LastUpdated        string          `json:"last_updated"`
}

// KBDataResponse is the body of GET kbData.
type KBDataResponse struct {
	Stats         KBStats `json:"stats"`
	ExecutionTime float64 `json:"execution_time"`
}
