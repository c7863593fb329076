package model

import "time"

// Document 对应 documents 表，保存一次上传的归一化全文。
// 创建后不可变；重新上传只会新建记录，不会修改旧记录。
type Document struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SubjectID string    `gorm:"type:varchar(36);not null;index" json:"subjectId"`
	Filename  string    `gorm:"type:varchar(255);not null" json:"filename"`
	FullText  string    `gorm:"type:longtext" json:"-"`
	// ObjectKey 是原始字节在 MinIO 中的对象名，重新处理时从这里取回。
	ObjectKey string    `gorm:"type:varchar(255)" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Document) TableName() string {
	return "documents"
}
