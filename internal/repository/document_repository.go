package repository

import (
	"errors"

	"gorm.io/gorm"
	"prepsmart-go/internal/model"
)

// DocumentRepository 定义了对 documents 表的数据操作接口。
type DocumentRepository interface {
	Create(doc *model.Document) error
	FindByID(id string) (*model.Document, error)
	FindBySubjectID(subjectID string) ([]*model.Document, error)
	Delete(id string) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

func (r *documentRepository) FindByID(id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindBySubjectID(subjectID string) ([]*model.Document, error) {
	var docs []*model.Document
	err := r.db.Where("subject_id = ?", subjectID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// Delete 删除文档记录；其分块由 ChunkRepository.DeleteByDocumentID 级联清理。
func (r *documentRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.Document{}).Error
}
