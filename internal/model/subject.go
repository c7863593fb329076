// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Subject 代表一个学科（知识库作用域）。
// 所有文档与分块都归属于一个学科，检索必须按学科过滤。
type Subject struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (Subject) TableName() string {
	return "subjects"
}
