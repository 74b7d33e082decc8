package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simpleplan/internal/db"
	"gorm.io/gorm"
)

// ErrActionNameRequired 当动作名称为空时返回
var ErrActionNameRequired = errors.New("action name is required")

// ActionService 负责目标下动作的增删改查
// 周期规则在入口处校验，非法规则不会进入存储
type ActionService struct {
	db *gorm.DB
}

// ActionInput 定义创建/更新动作时可配置字段
type ActionInput struct {
	Name       string
	Recurrence Recurrence
}

// NewActionService 构造 ActionService
func NewActionService(gdb *gorm.DB) *ActionService {
	return &ActionService{db: gdb}
}

// Get 根据 ID 获取动作及其打卡快照
func (s *ActionService) Get(id uint) (*db.Action, error) {
	var action db.Action
	if err := s.db.Preload("Completions").First(&action, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActionNotFound
		}
		return nil, fmt.Errorf("get action: %w", err)
	}
	return &action, nil
}

// Create 在指定目标下新建动作
func (s *ActionService) Create(goalID uint, input ActionInput) (*db.Action, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrActionNameRequired
	}

	rec, err := NewRecurrence(input.Recurrence.Kind, input.Recurrence.WeeklyDay, input.Recurrence.CustomDays)
	if err != nil {
		return nil, err
	}

	var goal db.Goal
	if err := s.db.First(&goal, goalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("find goal: %w", err)
	}

	action := db.Action{
		GoalID: goalID,
		Name:   SanitizeText(name),
	}
	ApplyRecurrence(&action, rec)

	if err := s.db.Create(&action).Error; err != nil {
		return nil, fmt.Errorf("create action: %w", err)
	}
	return &action, nil
}

// Update 更新动作名称与周期规则。
// 规则变更只对之后的日期生效，不回写历史适用性。
func (s *ActionService) Update(id uint, input ActionInput) (*db.Action, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrActionNameRequired
	}

	rec, err := NewRecurrence(input.Recurrence.Kind, input.Recurrence.WeeklyDay, input.Recurrence.CustomDays)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	existing.Name = SanitizeText(name)
	ApplyRecurrence(existing, rec)

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update action: %w", err)
	}
	return existing, nil
}

// Delete 删除动作并级联清理其打卡记录
func (s *ActionService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var action db.Action
		if err := tx.First(&action, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActionNotFound
			}
			return fmt.Errorf("find action: %w", err)
		}

		if err := tx.Where("action_id = ?", id).Delete(&db.Completion{}).Error; err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}

		if err := tx.Delete(&action).Error; err != nil {
			return fmt.Errorf("delete action: %w", err)
		}
		return nil
	})
}
