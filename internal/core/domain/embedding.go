package domain

import "time"

// Metadata keys written on every embedding row
const (
	MetaChunkIndex = "chunk_index"
	MetaCreatedAt  = "created_at"
)

// EmbeddingRow is a chunk of persona document text with its vector.
// OwnerID is the persona ID; all rows of an owner are replaced together.
type EmbeddingRow struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"owner_id"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"-"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// Match counts used for similarity search
const (
	SyncMatchCount   = 5
	StreamMatchCount = 3
)
