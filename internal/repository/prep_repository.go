package repository

import (
	"errors"

	"gorm.io/gorm"
	"prepsmart-go/internal/model"
)

// PrepRepository 定义了单元复习缓存 (preps 表) 的操作接口。
type PrepRepository interface {
	FindBySubjectAndUnit(subjectID, unit string) (*model.Prep, error)
	Create(prep *model.Prep) error
}

type prepRepository struct {
	db *gorm.DB
}

// NewPrepRepository 创建一个新的 PrepRepository 实例。
func NewPrepRepository(db *gorm.DB) PrepRepository {
	return &prepRepository{db: db}
}

func (r *prepRepository) FindBySubjectAndUnit(subjectID, unit string) (*model.Prep, error) {
	var prep model.Prep
	err := r.db.Where("subject_id = ? AND unit = ?", subjectID, unit).First(&prep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prep, nil
}

func (r *prepRepository) Create(prep *model.Prep) error {
	return r.db.Create(prep).Error
}
