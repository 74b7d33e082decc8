package db

import (
	"time"

	"gorm.io/gorm"
)

// Goal 定义了目标模型
// TargetDate 仅承载日历日语义，比较时忽略时分秒
// Notes 保存 Markdown 原文，NotesHTML 为渲染并消毒后的结果
// 删除目标会级联删除其动作及动作下的打卡记录
type Goal struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Notes       string `gorm:"type:text"`
	NotesHTML   string `gorm:"type:text"`
	TargetDate  *time.Time
	Completed   bool
	CompletedAt *time.Time
	Actions     []Action `gorm:"constraint:OnDelete:CASCADE"`
}
