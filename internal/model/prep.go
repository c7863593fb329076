package model

import "time"

// Prep 对应 preps 表，缓存按 (学科, 单元) 生成的复习内容。
// 首次生成后写入，之后相同请求直接复用，不做自动失效。
type Prep struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SubjectID string    `gorm:"type:varchar(36);not null;index:idx_subject_unit" json:"subjectId"`
	Unit      string    `gorm:"type:varchar(255);not null;index:idx_subject_unit" json:"unit"`
	Content   string    `gorm:"type:longtext" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Prep) TableName() string {
	return "preps"
}
