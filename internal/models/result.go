package models

// IngestResult reports what a single ingestion added to the vector index.
// VectorStoreSize is the total chunk count of the index after the write.
type IngestResult struct {
	FilePath        string `json:"file_path"`
	FileName        string `json:"file_name"`
	NumChunks       int    `json:"num_chunks"`
	VectorStoreSize int    `json:"vector_store_size"`
}

// UploadResponse is the HTTP response for an uploaded file.
type UploadResponse struct {
	FileName        string `json:"filename"`
	IsNewFile       bool   `json:"is_new_file"`
	NumChunks       int    `json:"num_chunks"`
	VectorStoreSize int    `json:"vector_store_size"`
}

// Stats summarizes the contents of the vector index.
type Stats struct {
	Chunks    int `json:"chunks"`
	Documents int `json:"documents"`
}
