package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
	"gorm.io/gorm"
)

// ErrInvalidSnapshot 当导入载荷无法解析时返回
var ErrInvalidSnapshot = errors.New("invalid snapshot payload")

// GoalRecord 是摄入归一化后的目标快照，旧字段在此之后不再出现
type GoalRecord struct {
	ClientID   string
	Title      string
	TargetDate string
	CreatedAt  time.Time
	Actions    []ActionRecord
}

// ActionRecord 是归一化后的动作快照
type ActionRecord struct {
	ClientID    string
	Name        string
	Recurrence  Recurrence
	CreatedAt   time.Time
	Completions []CompletionRecord
}

// CompletionRecord 是归一化后的单日完成记录
type CompletionRecord struct {
	Day       string
	Completed bool
}

// rawGoal 对应旧版导出的目标形态
// 动作可能存放在 actions 或更旧的 habits 字段下，二者取其一
type rawGoal struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	TargetDate string      `json:"targetDate"`
	CreatedAt  string      `json:"createdAt"`
	Actions    []rawAction `json:"actions"`
	Habits     []rawAction `json:"habits"`
}

type rawAction struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Recurrence  json.RawMessage `json:"recurrence"`
	CreatedAt   string          `json:"createdAt"`
	Completions []rawCompletion `json:"completions"`
}

type rawCompletion struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// NormalizeSnapshot 在摄入边界上做一次性归一化：
// habits 字段并入 actions；裸字符串周期规则转结构化；
// 目标按 id 去重（保留首次出现）；缺失 id 的记录补发 uuid；
// 同一 (动作, 日期) 的重复打卡以后出现者为准。
// 归一化只发生在这里，下游不再接触旧形态。
func NormalizeSnapshot(raw []byte) ([]GoalRecord, error) {
	var goals []rawGoal
	if err := json.Unmarshal(raw, &goals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	records := make([]GoalRecord, 0, len(goals))
	seen := make(map[string]bool, len(goals))

	for _, goal := range goals {
		id := strings.TrimSpace(goal.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		record := GoalRecord{
			ClientID:   id,
			Title:      strings.TrimSpace(goal.Title),
			TargetDate: strings.TrimSpace(goal.TargetDate),
			CreatedAt:  parseTimestamp(goal.CreatedAt),
		}
		if record.Title == "" {
			return nil, fmt.Errorf("%w: goal %s has no title", ErrInvalidSnapshot, id)
		}
		if record.TargetDate != "" {
			normalized, err := normalizeDayField(record.TargetDate)
			if err != nil {
				return nil, fmt.Errorf("%w: goal %s target date: %v", ErrInvalidSnapshot, id, err)
			}
			record.TargetDate = normalized
		}

		// 旧版把动作存放在 habits 字段
		actions := goal.Actions
		if len(actions) == 0 && len(goal.Habits) > 0 {
			actions = goal.Habits
		}

		for _, action := range actions {
			rec, err := ParseRecurrence(action.Recurrence)
			if err != nil {
				return nil, fmt.Errorf("goal %s action %q: %w", id, action.Name, err)
			}

			actionRecord := ActionRecord{
				ClientID:   strings.TrimSpace(action.ID),
				Name:       strings.TrimSpace(action.Name),
				Recurrence: rec,
				CreatedAt:  parseTimestamp(action.CreatedAt),
			}
			if actionRecord.ClientID == "" {
				actionRecord.ClientID = uuid.NewString()
			}
			if actionRecord.Name == "" {
				return nil, fmt.Errorf("%w: goal %s has an unnamed action", ErrInvalidSnapshot, id)
			}

			// 旧导出偶见同一天的重复记录，按日期键去重，后出现者为准
			byDay := make(map[string]int, len(action.Completions))
			for _, completion := range action.Completions {
				day, err := normalizeDayField(completion.Date)
				if err != nil {
					return nil, fmt.Errorf("%w: action %s completion date: %v", ErrInvalidSnapshot, actionRecord.ClientID, err)
				}
				if idx, ok := byDay[day]; ok {
					actionRecord.Completions[idx].Completed = completion.Completed
					continue
				}
				byDay[day] = len(actionRecord.Completions)
				actionRecord.Completions = append(actionRecord.Completions, CompletionRecord{
					Day:       day,
					Completed: completion.Completed,
				})
			}

			record.Actions = append(record.Actions, actionRecord)
		}

		records = append(records, record)
	}

	return records, nil
}

// ImportService 将归一化后的快照落库
type ImportService struct {
	db *gorm.DB
}

// NewImportService 构造 ImportService
func NewImportService(gdb *gorm.DB) *ImportService {
	return &ImportService{db: gdb}
}

// Import 归一化并事务性写入一份旧版快照，返回创建的目标数。
// 任一条目失败时整体回滚，不留半份数据。
func (s *ImportService) Import(raw []byte) (int, error) {
	records, err := NormalizeSnapshot(raw)
	if err != nil {
		return 0, err
	}

	imported := 0
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			goal := db.Goal{Title: SanitizeText(record.Title)}
			if !record.CreatedAt.IsZero() {
				goal.CreatedAt = record.CreatedAt
			}
			if record.TargetDate != "" {
				day, err := calendar.ParseDayKey(record.TargetDate)
				if err != nil {
					return err
				}
				goal.TargetDate = &day
			}

			if err := tx.Create(&goal).Error; err != nil {
				return fmt.Errorf("import goal %q: %w", record.Title, err)
			}

			for _, actionRecord := range record.Actions {
				action := db.Action{
					GoalID: goal.ID,
					Name:   SanitizeText(actionRecord.Name),
				}
				ApplyRecurrence(&action, actionRecord.Recurrence)
				if !actionRecord.CreatedAt.IsZero() {
					action.CreatedAt = actionRecord.CreatedAt
				}

				if err := tx.Create(&action).Error; err != nil {
					return fmt.Errorf("import action %q: %w", actionRecord.Name, err)
				}

				for _, completion := range actionRecord.Completions {
					row := db.Completion{
						ActionID:  action.ID,
						Day:       completion.Day,
						Completed: completion.Completed,
					}
					if err := tx.Create(&row).Error; err != nil {
						return fmt.Errorf("import completion %s: %w", completion.Day, err)
					}
				}
			}

			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return imported, nil
}

// parseTimestamp 接受 RFC3339 或日期键，解析失败返回零值让数据库自填
func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Local()
	}
	if t, err := calendar.ParseDayKey(raw); err == nil {
		return t
	}
	return time.Time{}
}

// normalizeDayField 将日期字段归一化为日期键，兼容带时间的 RFC3339
func normalizeDayField(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := calendar.ParseDayKey(raw); err == nil {
		return raw, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return calendar.DayKey(t.Local()), nil
	}
	return "", fmt.Errorf("unrecognized date %q", raw)
}
