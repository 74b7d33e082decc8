package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrActionNotFound 在指定动作不存在时返回
var ErrActionNotFound = errors.New("action not found")

// CompletionService 是打卡账本：按 (动作, 日期) 幂等写入完成状态
// 同键并发写入由存储层按后写胜出处理，引擎不做仲裁
type CompletionService struct {
	db *gorm.DB
}

// NewCompletionService 构造 CompletionService
func NewCompletionService(gdb *gorm.DB) *CompletionService {
	return &CompletionService{db: gdb}
}

// SetCompletion 处理幂等打卡逻辑：已有记录则覆盖完成标记，否则新建。
// 同一 (action, day) 永远只有一条记录。
func (s *CompletionService) SetCompletion(actionID uint, day time.Time, completed bool) (*db.Completion, error) {
	var action db.Action
	if err := s.db.First(&action, actionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActionNotFound
		}
		return nil, fmt.Errorf("find action: %w", err)
	}

	key := calendar.DayKey(day)

	record := db.Completion{
		ActionID:  actionID,
		Day:       key,
		Completed: completed,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "action_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert completion: %w", err)
	}

	if err := s.db.Where("action_id = ? AND day = ?", actionID, key).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload completion: %w", err)
	}

	return &record, nil
}

// IsCompleted 查询某动作在某天是否完成。
// 无记录即未完成，没有"未知"状态。
func (s *CompletionService) IsCompleted(actionID uint, day time.Time) (bool, error) {
	var record db.Completion
	err := s.db.Where("action_id = ? AND day = ?", actionID, calendar.DayKey(day)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup completion: %w", err)
	}
	return record.Completed, nil
}

// ListBetween 返回动作在 [from, to] 区间内的打卡记录，按日期升序
func (s *CompletionService) ListBetween(actionID uint, from, to time.Time) ([]db.Completion, error) {
	if actionID == 0 {
		return nil, fmt.Errorf("action id is required")
	}

	var records []db.Completion
	if err := s.db.Where("action_id = ?", actionID).
		Where("day BETWEEN ? AND ?", calendar.DayKey(from), calendar.DayKey(to)).
		Order("day ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}

	return records, nil
}

// CompletedOn 是纯查询版本：在已加载的打卡集合上判断某天是否完成，
// 供聚合计算在内存快照上自由复算，不触发额外 IO。
func CompletedOn(completions []db.Completion, day time.Time) bool {
	key := calendar.DayKey(day)
	for _, c := range completions {
		if c.Day == key {
			return c.Completed
		}
	}
	return false
}
