// Package repository 提供了数据访问层的实现。
package repository

import (
	"errors"

	"gorm.io/gorm"
	"prepsmart-go/internal/model"
)

// ErrNotFound 表示查询的记录不存在。
var ErrNotFound = errors.New("record not found")

// SubjectRepository 定义了对 subjects 表的数据操作接口。
type SubjectRepository interface {
	Create(subject *model.Subject) error
	FindByID(id string) (*model.Subject, error)
	FindLatest() (*model.Subject, error)
	FindAll() ([]*model.Subject, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository 创建一个新的 SubjectRepository 实例。
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) Create(subject *model.Subject) error {
	return r.db.Create(subject).Error
}

func (r *subjectRepository) FindByID(id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.Where("id = ?", id).First(&subject).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindLatest 返回最近创建的学科，用于未指定学科时的兜底解析。
func (r *subjectRepository) FindLatest() (*model.Subject, error) {
	var subject model.Subject
	err := r.db.Order("created_at DESC").First(&subject).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepository) FindAll() ([]*model.Subject, error) {
	var subjects []*model.Subject
	err := r.db.Order("created_at DESC").Find(&subjects).Error
	return subjects, err
}
