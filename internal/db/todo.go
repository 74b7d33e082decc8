package db

import "gorm.io/gorm"

// Todo 定义了独立于目标的临时待办
// 全局单列表：不按日期划分，任何一天的合并视图都会带上全部待办
// ClientID 为对外暴露的 uuid，Position 保留创建顺序用于稳定排序
type Todo struct {
	gorm.Model
	ClientID  string `gorm:"uniqueIndex;not null"`
	Text      string `gorm:"not null"`
	Completed bool
	Position  int `gorm:"index"`
}
