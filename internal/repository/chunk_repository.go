package repository

import (
	"gorm.io/gorm"
	"prepsmart-go/internal/model"
)

// ChunkRepository 定义了对 chunks 表的数据操作接口。
// 所有读取都以学科为过滤条件，避免跨学科泄漏。
type ChunkRepository interface {
	Create(chunk *model.Chunk) error
	// ListBySubjectPage 按创建顺序分页读取某学科的分块，作为语义检索失败时的兜底。
	ListBySubjectPage(subjectID string, offset, limit int) ([]*model.Chunk, error)
	CountBySubject(subjectID string) (int64, error)
	DeleteByDocumentID(documentID string) error
}

type chunkRepository struct {
	db *gorm.DB
}

// NewChunkRepository 创建一个新的 ChunkRepository 实例。
func NewChunkRepository(db *gorm.DB) ChunkRepository {
	return &chunkRepository{db: db}
}

func (r *chunkRepository) Create(chunk *model.Chunk) error {
	return r.db.Create(chunk).Error
}

func (r *chunkRepository) ListBySubjectPage(subjectID string, offset, limit int) ([]*model.Chunk, error) {
	var chunks []*model.Chunk
	err := r.db.Where("subject_id = ?", subjectID).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&chunks).Error
	return chunks, err
}

func (r *chunkRepository) CountBySubject(subjectID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Chunk{}).Where("subject_id = ?", subjectID).Count(&count).Error
	return count, err
}

// DeleteByDocumentID 删除某文档的全部分块记录（重新处理前的幂等清理）。
func (r *chunkRepository) DeleteByDocumentID(documentID string) error {
	return r.db.Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error
}
