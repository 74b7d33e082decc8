package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrGoalNotFound 在指定目标不存在时返回
	ErrGoalNotFound = errors.New("goal not found")
	// ErrGoalTitleRequired 当目标标题为空时返回
	ErrGoalTitleRequired = errors.New("goal title is required")
)

// GoalService 负责 Goal 数据的增删改查
// 目标持有动作，动作持有打卡记录，删除沿所有权链级联；
// 任何失败的变更不会落下半截状态，调用方可安全重试。
type GoalService struct {
	db *gorm.DB
}

// GoalInput 定义创建/更新目标时可配置字段
// TargetDate 接受 YYYY-MM-DD 日期键，空字符串表示清除目标日
type GoalInput struct {
	Title      string
	Notes      string
	TargetDate string
}

// NewGoalService 构造 GoalService
func NewGoalService(gdb *gorm.DB) *GoalService {
	return &GoalService{db: gdb}
}

// List 返回全部目标，按创建时间倒序，动作与打卡一并加载
func (s *GoalService) List() ([]db.Goal, error) {
	var goals []db.Goal
	if err := s.db.Preload("Actions.Completions").
		Preload("Actions").
		Order("created_at DESC").
		Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Get 根据 ID 获取目标及其完整快照
func (s *GoalService) Get(id uint) (*db.Goal, error) {
	var goal db.Goal
	if err := s.db.Preload("Actions.Completions").
		Preload("Actions").
		First(&goal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return &goal, nil
}

// Create 新建目标
func (s *GoalService) Create(input GoalInput) (*db.Goal, error) {
	goal, err := buildGoal(input)
	if err != nil {
		return nil, err
	}

	if err := s.db.Create(goal).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return goal, nil
}

// Update 更新目标的标题、备注与目标日
func (s *GoalService) Update(id uint, input GoalInput) (*db.Goal, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updated, err := buildGoal(input)
	if err != nil {
		return nil, err
	}

	existing.Title = updated.Title
	existing.Notes = updated.Notes
	existing.NotesHTML = updated.NotesHTML
	existing.TargetDate = updated.TargetDate

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return existing, nil
}

// MarkCompleted 标记目标完成/取消完成，完成时间随之更新
func (s *GoalService) MarkCompleted(id uint, completed bool, now time.Time) (*db.Goal, error) {
	goal, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	goal.Completed = completed
	if completed {
		goal.CompletedAt = &now
	} else {
		goal.CompletedAt = nil
	}

	if err := s.db.Save(goal).Error; err != nil {
		return nil, fmt.Errorf("mark goal completed: %w", err)
	}
	return goal, nil
}

// Delete 删除目标并级联清理其动作与打卡记录
func (s *GoalService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var goal db.Goal
		if err := tx.First(&goal, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGoalNotFound
			}
			return fmt.Errorf("find goal: %w", err)
		}

		var actionIDs []uint
		if err := tx.Model(&db.Action{}).Where("goal_id = ?", id).Pluck("id", &actionIDs).Error; err != nil {
			return fmt.Errorf("list goal actions: %w", err)
		}

		if len(actionIDs) > 0 {
			if err := tx.Where("action_id IN ?", actionIDs).Delete(&db.Completion{}).Error; err != nil {
				return fmt.Errorf("delete completions: %w", err)
			}
			if err := tx.Where("goal_id = ?", id).Delete(&db.Action{}).Error; err != nil {
				return fmt.Errorf("delete actions: %w", err)
			}
		}

		if err := tx.Delete(&goal).Error; err != nil {
			return fmt.Errorf("delete goal: %w", err)
		}
		return nil
	})
}

func buildGoal(input GoalInput) (*db.Goal, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrGoalTitleRequired
	}

	goal := db.Goal{
		Title: SanitizeText(title),
		Notes: input.Notes,
	}

	if notesHTML, err := RenderMarkdown(input.Notes); err == nil {
		goal.NotesHTML = notesHTML
	} else {
		return nil, err
	}

	if target := strings.TrimSpace(input.TargetDate); target != "" {
		day, err := calendar.ParseDayKey(target)
		if err != nil {
			return nil, fmt.Errorf("invalid target date: %w", err)
		}
		goal.TargetDate = &day
	}

	return &goal, nil
}
