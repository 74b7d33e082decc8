package db

import (
	"time"

	"gorm.io/gorm"
)

// Action 定义了目标下的周期性动作
// 周期规则拆为三列存储：RecurrenceKind 为 daily/weekdays/weekly/custom，
// WeeklyDay 仅在 weekly 时有效（周日=0 … 周六=6），
// CustomDays 仅在 custom 时有效，存放升序逗号分隔的星期编号（如 "1,3"）。
// 打卡记录只对创建日当天及之后的日期有意义。
type Action struct {
	gorm.Model
	GoalID         uint `gorm:"index;not null"`
	Name           string
	RecurrenceKind string `gorm:"not null;default:daily"`
	WeeklyDay      int
	CustomDays     string
	Completions    []Completion `gorm:"constraint:OnDelete:CASCADE"`
}

// CreatedDay 返回动作创建日的本地零点，周期判定以此为下界
func (a Action) CreatedDay() time.Time {
	t := a.CreatedAt
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
