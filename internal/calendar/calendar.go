package calendar

import (
	"fmt"
	"math"
	"time"
)

// DayKeyLayout 是全系统统一的日期键格式
const DayKeyLayout = "2006-01-02"

// DayKey 根据本地日历字段生成 YYYY-MM-DD 键。
// 同一自然日内的任意时刻都会得到相同的键，比较一律基于键而非原始时间戳。
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey 将 YYYY-MM-DD 键解析为当天本地零点
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DayKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", key, err)
	}
	return t, nil
}

// Truncate 抹去时分秒，保留本地日历日
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CompareDays 按日期键比较两个时间所在的自然日，
// a 在 b 之前返回 -1，同一天返回 0，之后返回 1。
func CompareDays(a, b time.Time) int {
	ka, kb := DayKey(a), DayKey(b)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}

// SameDay 判断两个时间是否落在同一自然日
func SameDay(a, b time.Time) bool {
	return CompareDays(a, b) == 0
}

// AddDays 在保持本地日历语义的前提下平移 n 天
func AddDays(t time.Time, n int) time.Time {
	return Truncate(t).AddDate(0, 0, n)
}

// DaysBetween 返回 from 到 to 的整日差，to 在 from 之前时为负数。
// 夏令时切换日不足或超过 24 小时，按最近整数归位到日历日差。
func DaysBetween(from, to time.Time) int {
	f := Truncate(from)
	t := Truncate(to)
	return int(math.Round(t.Sub(f).Hours() / 24))
}

// RangeDays 生成 [from, to] 闭区间内的每一天（本地零点），
// to 在 from 之前时返回空切片。
func RangeDays(from, to time.Time) []time.Time {
	if CompareDays(to, from) < 0 {
		return nil
	}
	days := make([]time.Time, 0, DaysBetween(from, to)+1)
	for d := Truncate(from); CompareDays(d, to) <= 0; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
