package service

import (
	"time"

	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
)

// IsGoalOverdue 判定目标是否逾期：已完成或无目标日一律不算，
// 否则目标日按日期键严格早于 today 时为逾期。
func IsGoalOverdue(goal db.Goal, today time.Time) bool {
	if goal.Completed || goal.TargetDate == nil {
		return false
	}
	return calendar.CompareDays(*goal.TargetDate, today) < 0
}

// OverdueDays 返回逾期的整日数，未逾期为 0
func OverdueDays(goal db.Goal, today time.Time) int {
	if !IsGoalOverdue(goal, today) {
		return 0
	}
	return calendar.DaysBetween(*goal.TargetDate, today)
}

// IsActionOverdue 判定动作是否逾期。
// 只有目标本身逾期时才继续检查；动作必须在目标日（而非 today）适用，
// 且目标日当天没有完成记录。只看终点日、不追溯中间错过的次数，
// 回答的是"有没有冲线"而不是"漏了几次"。
func IsActionOverdue(action db.Action, goal db.Goal, today time.Time) bool {
	if !IsGoalOverdue(goal, today) {
		return false
	}

	targetDay := calendar.Truncate(*goal.TargetDate)
	if !IsApplicable(ActionRecurrence(action), action.CreatedDay(), targetDay) {
		return false
	}

	return !CompletedOn(action.Completions, targetDay)
}
