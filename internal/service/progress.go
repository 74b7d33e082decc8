package service

import (
	"fmt"
	"math"
	"time"

	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
)

// DefaultStreakLookback 限制连胜回溯的最大天数，避免长寿动作的无界扫描
const DefaultStreakLookback = 365

// GoalProgressPolicy 标识目标进度的计算口径
// 两种口径度量的东西不同（时间流逝 vs 实际投入），不可折中为一个数字，
// 由展示方按场景各取所需。
type GoalProgressPolicy string

const (
	// PolicyTimeElapsed 按创建日到目标日的时间占比计算
	PolicyTimeElapsed GoalProgressPolicy = "time_elapsed"
	// PolicyCompletionRatio 按曾经完成过至少一次的动作占比计算
	PolicyCompletionRatio GoalProgressPolicy = "completion_ratio"
)

// ActionProgress 汇总动作在一段日期内的完成情况
type ActionProgress struct {
	CompletedCount  int `json:"completed_count"`
	ApplicableCount int `json:"applicable_count"`
	Percentage      int `json:"percentage"`
}

// CalculateActionProgress 在给定日期集合上聚合适用性 × 完成状态。
// 完成状态来自动作自带的打卡快照，纯计算，可自由复算。
func CalculateActionProgress(action db.Action, days []time.Time) ActionProgress {
	rec := ActionRecurrence(action)
	created := action.CreatedDay()

	var progress ActionProgress
	for _, day := range days {
		if !IsApplicable(rec, created, day) {
			continue
		}
		progress.ApplicableCount++
		if CompletedOn(action.Completions, day) {
			progress.CompletedCount++
		}
	}

	progress.Percentage = roundPercent(progress.CompletedCount, progress.ApplicableCount)
	return progress
}

// GoalProgress 按指定口径计算目标进度百分比
func GoalProgress(goal db.Goal, policy GoalProgressPolicy, now time.Time) (int, error) {
	switch policy {
	case PolicyTimeElapsed:
		return GoalProgressTimeElapsed(goal, now), nil
	case PolicyCompletionRatio:
		return GoalProgressCompletionRatio(goal), nil
	default:
		return 0, fmt.Errorf("unknown goal progress policy %q", policy)
	}
}

// GoalProgressTimeElapsed 返回时间轴口径的进度：创建至今占创建到目标日的比例。
// 无目标日为 0；目标日不晚于创建日视为退化区间，直接 100。
func GoalProgressTimeElapsed(goal db.Goal, now time.Time) int {
	if goal.TargetDate == nil {
		return 0
	}

	created := calendar.Truncate(goal.CreatedAt)
	target := calendar.Truncate(*goal.TargetDate)

	total := target.Sub(created)
	if total <= 0 {
		return 100
	}

	elapsed := calendar.Truncate(now).Sub(created)
	percent := int(math.Round(float64(elapsed) / float64(total) * 100))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// GoalProgressCompletionRatio 返回投入口径的进度：
// 曾记录过至少一次完成的动作占全部动作的比例，零动作目标为 0。
func GoalProgressCompletionRatio(goal db.Goal) int {
	if len(goal.Actions) == 0 {
		return 0
	}

	touched := 0
	for _, action := range goal.Actions {
		for _, c := range action.Completions {
			if c.Completed {
				touched++
				break
			}
		}
	}

	return roundPercent(touched, len(goal.Actions))
}

// CurrentStreak 从 asOfDay 起逐日回走统计当前连胜。
// 不适用的日子跳过不断签；适用且完成计入；适用但未完成终止。
// lookbackDays <= 0 时使用 DefaultStreakLookback。
func CurrentStreak(action db.Action, asOfDay time.Time, lookbackDays int) int {
	if lookbackDays <= 0 {
		lookbackDays = DefaultStreakLookback
	}

	rec := ActionRecurrence(action)
	created := action.CreatedDay()

	streak := 0
	day := calendar.Truncate(asOfDay)
	for i := 0; i < lookbackDays; i++ {
		if calendar.CompareDays(day, created) < 0 {
			break
		}
		if IsApplicable(rec, created, day) {
			if !CompletedOn(action.Completions, day) {
				break
			}
			streak++
		}
		day = calendar.AddDays(day, -1)
	}

	return streak
}

// LongestStreak 返回 [from, to] 区间内最长的一段连胜
func LongestStreak(action db.Action, from, to time.Time) int {
	rec := ActionRecurrence(action)
	created := action.CreatedDay()

	longest, current := 0, 0
	for _, day := range calendar.RangeDays(from, to) {
		if !IsApplicable(rec, created, day) {
			continue
		}
		if CompletedOn(action.Completions, day) {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}

	return longest
}

// DayIntensity 表示热力图中单日的完成密度
type DayIntensity struct {
	Day             string `json:"day"`
	CompletedCount  int    `json:"completed_count"`
	ApplicableCount int    `json:"applicable_count"`
	// Intensity 是 0-4 的档位，类似贡献热力图
	Intensity int `json:"intensity"`
}

// DailyCompletionIntensity 按天汇总一组动作的完成密度，供进度页热力图使用
func DailyCompletionIntensity(actions []db.Action, from, to time.Time) []DayIntensity {
	days := calendar.RangeDays(from, to)
	result := make([]DayIntensity, 0, len(days))

	for _, day := range days {
		entry := DayIntensity{Day: calendar.DayKey(day)}
		for _, action := range actions {
			if !IsApplicable(ActionRecurrence(action), action.CreatedDay(), day) {
				continue
			}
			entry.ApplicableCount++
			if CompletedOn(action.Completions, day) {
				entry.CompletedCount++
			}
		}
		entry.Intensity = intensityBucket(entry.CompletedCount, entry.ApplicableCount)
		result = append(result, entry)
	}

	return result
}

func intensityBucket(completed, applicable int) int {
	if applicable == 0 || completed == 0 {
		return 0
	}
	ratio := float64(completed) / float64(applicable)
	switch {
	case ratio >= 1:
		return 4
	case ratio >= 0.75:
		return 3
	case ratio >= 0.5:
		return 2
	default:
		return 1
	}
}

// roundPercent 四舍五入到最近整数百分比，分母为零时返回 0
func roundPercent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
