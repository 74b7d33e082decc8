package db

import "gorm.io/gorm"

// Completion 记录某个动作在某一天的完成状态
// Action + Day 采用唯一索引，保证同一 (动作, 日期) 至多一条记录，写入走幂等 upsert
// Day 为 YYYY-MM-DD 日期键，不含时分秒
type Completion struct {
	gorm.Model
	ActionID  uint   `gorm:"index;index:idx_completion_unique,unique"`
	Day       string `gorm:"index:idx_completion_unique,unique;not null"`
	Completed bool
}

// TableName 指定打卡记录的表名
func (Completion) TableName() string {
	return "completions"
}
