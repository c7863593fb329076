package model

import "time"

// Chunk 对应 chunks 表。一条记录只有在向量化成功后才会写入，
// 因此凡是存在的分块一定在 Elasticsearch 中有对应向量。
type Chunk struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SubjectID  string    `gorm:"type:varchar(36);not null;index" json:"subjectId"`
	DocumentID string    `gorm:"type:varchar(36);not null;index" json:"documentId"`
	ChunkIndex int       `gorm:"not null" json:"chunkIndex"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Chunk) TableName() string {
	return "chunks"
}

// EsChunk 定义了存储在 Elasticsearch 中的分块结构。
type EsChunk struct {
	VectorID     string    `json:"vector_id"` // documentID + chunkIndex
	SubjectID    string    `json:"subject_id"`
	DocumentID   string    `json:"document_id"`
	ChunkIndex   int       `json:"chunk_index"`
	Content      string    `json:"content"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

// RetrievedChunk 是检索返回的临时结果，不落库。
// 按相似度从高到低排序；走兜底路径时 Score 为 0。
type RetrievedChunk struct {
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"documentId"`
}

// IngestReport 汇总一次文档摄取的分块处理计数。
type IngestReport struct {
	DocumentID      string `json:"documentId"`
	ChunksTotal     int    `json:"chunksTotal"`
	ChunksSucceeded int    `json:"chunksSucceeded"`
}
