package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
)

// 周期规则的四种类型
const (
	RecurrenceDaily    = "daily"
	RecurrenceWeekdays = "weekdays"
	RecurrenceWeekly   = "weekly"
	RecurrenceCustom   = "custom"
)

// ErrInvalidRecurrence 当周期规则配置非法时返回
var ErrInvalidRecurrence = errors.New("invalid recurrence configuration")

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Recurrence 描述动作的周期规则
// WeeklyDay 仅对 weekly 有效，CustomDays 仅对 custom 有效；
// 星期编号全系统统一为周日=0 … 周六=6。
type Recurrence struct {
	Kind       string `json:"type"`
	WeeklyDay  int    `json:"weeklyDay,omitempty"`
	CustomDays []int  `json:"customDays,omitempty"`
}

// NewRecurrence 在入口处校验并归一化周期规则。
// custom 的空集合在这里直接拒绝，绝不会以"永不适用"的形态进入系统；
// custom 的日集合会去重并升序排列，顺序无关紧要。
func NewRecurrence(kind string, weeklyDay int, customDays []int) (Recurrence, error) {
	kind = strings.TrimSpace(strings.ToLower(kind))

	switch kind {
	case RecurrenceDaily, RecurrenceWeekdays:
		return Recurrence{Kind: kind}, nil
	case RecurrenceWeekly:
		if weeklyDay < 0 || weeklyDay > 6 {
			return Recurrence{}, fmt.Errorf("%w: weekly day %d out of range", ErrInvalidRecurrence, weeklyDay)
		}
		return Recurrence{Kind: kind, WeeklyDay: weeklyDay}, nil
	case RecurrenceCustom:
		if len(customDays) == 0 {
			return Recurrence{}, fmt.Errorf("%w: custom recurrence requires at least one day", ErrInvalidRecurrence)
		}
		days := slices.Clone(customDays)
		slices.Sort(days)
		days = slices.Compact(days)
		for _, d := range days {
			if d < 0 || d > 6 {
				return Recurrence{}, fmt.Errorf("%w: custom day %d out of range", ErrInvalidRecurrence, d)
			}
		}
		return Recurrence{Kind: kind, CustomDays: days}, nil
	default:
		return Recurrence{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRecurrence, kind)
	}
}

// ParseRecurrence 解析外部输入的周期规则，兼容旧版裸字符串形态。
// 旧数据中的 "weekly" 不带具体星期，按原始产品的回退规则默认周一。
// 归一化只发生在摄入边界，下游一律使用结构化规则。
func ParseRecurrence(raw json.RawMessage) (Recurrence, error) {
	if len(raw) == 0 {
		return Recurrence{}, fmt.Errorf("%w: missing recurrence", ErrInvalidRecurrence)
	}

	var legacy string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		switch strings.TrimSpace(strings.ToLower(legacy)) {
		case RecurrenceDaily, RecurrenceWeekdays:
			return NewRecurrence(legacy, 0, nil)
		case RecurrenceWeekly:
			return NewRecurrence(RecurrenceWeekly, 1, nil)
		default:
			return Recurrence{}, fmt.Errorf("%w: unknown legacy kind %q", ErrInvalidRecurrence, legacy)
		}
	}

	var structured Recurrence
	if err := json.Unmarshal(raw, &structured); err != nil {
		return Recurrence{}, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}

	return NewRecurrence(structured.Kind, structured.WeeklyDay, structured.CustomDays)
}

// IsApplicable 判定 targetDay 是否是该规则的适用日。
// 创建日之前一律不适用；未知类型记一条数据完整性告警并判为不适用，
// 这里守着渲染路径，绝不抛出。
func IsApplicable(rec Recurrence, createdDay, targetDay time.Time) bool {
	if calendar.CompareDays(targetDay, createdDay) < 0 {
		return false
	}

	weekday := int(targetDay.Weekday())

	switch rec.Kind {
	case RecurrenceDaily:
		return true
	case RecurrenceWeekdays:
		return weekday >= 1 && weekday <= 5
	case RecurrenceWeekly:
		return weekday == rec.WeeklyDay
	case RecurrenceCustom:
		// 空集合应在构造时就被拒绝，这里只是兜底
		return slices.Contains(rec.CustomDays, weekday)
	default:
		log.Printf("data integrity: unknown recurrence kind %q, treating as not applicable", rec.Kind)
		return false
	}
}

// FormatRecurrence 生成面向展示的规则描述
func FormatRecurrence(rec Recurrence) string {
	switch rec.Kind {
	case RecurrenceDaily:
		return "Daily"
	case RecurrenceWeekdays:
		return "Weekdays"
	case RecurrenceWeekly:
		if rec.WeeklyDay >= 0 && rec.WeeklyDay <= 6 {
			return "Every " + weekdayNames[rec.WeeklyDay]
		}
		return "Weekly"
	case RecurrenceCustom:
		if len(rec.CustomDays) == 0 {
			return "Custom"
		}
		names := make([]string, 0, len(rec.CustomDays))
		for _, d := range rec.CustomDays {
			if d >= 0 && d <= 6 {
				names = append(names, weekdayNames[d])
			}
		}
		return strings.Join(names, ", ")
	default:
		return "Daily"
	}
}

// ActionRecurrence 从持久化列还原动作的周期规则
func ActionRecurrence(action db.Action) Recurrence {
	return Recurrence{
		Kind:       action.RecurrenceKind,
		WeeklyDay:  action.WeeklyDay,
		CustomDays: decodeCustomDays(action.CustomDays),
	}
}

// ApplyRecurrence 把规则写回动作的持久化列
func ApplyRecurrence(action *db.Action, rec Recurrence) {
	action.RecurrenceKind = rec.Kind
	action.WeeklyDay = rec.WeeklyDay
	action.CustomDays = encodeCustomDays(rec.CustomDays)
}

func encodeCustomDays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

func decodeCustomDays(encoded string) []int {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil
	}
	parts := strings.Split(encoded, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			log.Printf("data integrity: malformed custom day %q in %q, skipping", p, encoded)
			continue
		}
		days = append(days, d)
	}
	return days
}
