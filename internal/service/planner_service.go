package service

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
	"gorm.io/gorm"
)

// PlanItem 是合并视图中的一项
// 动作派生项的 ID 形如 action-<actionID>-<daykey>，只是投影、不独立落库；
// 临时待办的 ID 为其 uuid，跨日期持续存在。
type PlanItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	ActionID  uint   `json:"action_id,omitempty"`
	GoalID    uint   `json:"goal_id,omitempty"`
	GoalTitle string `json:"goal_title,omitempty"`
}

// FromAction 判断该项是否由动作派生
func (p PlanItem) FromAction() bool {
	return p.ActionID != 0
}

// DayPlan 是某一天的合并视图：动作派生项 + 全部临时待办，已完成在前
type DayPlan struct {
	Day            string     `json:"day"`
	Items          []PlanItem `json:"items"`
	CompletedCount int        `json:"completed_count"`
	TotalCount     int        `json:"total_count"`
	Percentage     int        `json:"percentage"`
}

// PlanItemInput 是调用方回传的编辑后条目
type PlanItemInput struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	ActionID  uint   `json:"action_id,omitempty"`
}

// PlannerService 构建每日合并视图并把编辑写回各自的存储
type PlannerService struct {
	db          *gorm.DB
	goals       *GoalService
	todos       *TodoService
	completions *CompletionService

	// 当前选中日期与在途加载的届期判定共用一把锁
	mu          sync.Mutex
	selectedDay string
}

// NewPlannerService 构造 PlannerService
func NewPlannerService(gdb *gorm.DB) *PlannerService {
	return &PlannerService{
		db:          gdb,
		goals:       NewGoalService(gdb),
		todos:       NewTodoService(gdb),
		completions: NewCompletionService(gdb),
	}
}

// BuildDayPlan 在内存快照上构建某天的合并视图，纯计算。
// 动作逐一经过周期判定，适用者带当天完成状态入列；
// 临时待办全局生效，任何一天都完整出现。
func BuildDayPlan(goals []db.Goal, todos []db.Todo, day time.Time) DayPlan {
	key := calendar.DayKey(day)
	items := make([]PlanItem, 0, len(todos))

	for _, todo := range todos {
		items = append(items, PlanItem{
			ID:        todo.ClientID,
			Text:      todo.Text,
			Completed: todo.Completed,
		})
	}

	for _, goal := range goals {
		for _, action := range goal.Actions {
			if !IsApplicable(ActionRecurrence(action), action.CreatedDay(), day) {
				continue
			}
			items = append(items, PlanItem{
				ID:        fmt.Sprintf("action-%d-%s", action.ID, key),
				Text:      action.Name,
				Completed: CompletedOn(action.Completions, day),
				ActionID:  action.ID,
				GoalID:    goal.ID,
				GoalTitle: goal.Title,
			})
		}
	}

	// 已完成在前，组内保持插入顺序
	slices.SortStableFunc(items, func(a, b PlanItem) int {
		switch {
		case a.Completed && !b.Completed:
			return -1
		case !a.Completed && b.Completed:
			return 1
		default:
			return 0
		}
	})

	plan := DayPlan{Day: key, Items: items, TotalCount: len(items)}
	for _, item := range items {
		if item.Completed {
			plan.CompletedCount++
		}
	}
	plan.Percentage = roundPercent(plan.CompletedCount, plan.TotalCount)
	return plan
}

// Select 切换当前选中日期，在途的旧日期加载会在完成时被丢弃
func (s *PlannerService) Select(day time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedDay = calendar.DayKey(day)
}

// SelectedDay 返回当前选中日期键，未选中时为空
func (s *PlannerService) SelectedDay() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedDay
}

// Plan 加载存储快照并构建指定日期的合并视图
func (s *PlannerService) Plan(day time.Time) (*DayPlan, error) {
	goals, err := s.goals.List()
	if err != nil {
		return nil, err
	}

	todos, err := s.todos.List()
	if err != nil {
		return nil, err
	}

	plan := BuildDayPlan(goals, todos, day)
	return &plan, nil
}

// PlanSelected 构建 day 的视图，但仅当该日期仍是当前选中日期时交付结果。
// 加载在发起时就打上届期标记，完成时日期已切换则结果作废（stale=true）。
// 这是按届期丢弃，不是真正的取消。
func (s *PlannerService) PlanSelected(day time.Time) (*DayPlan, bool, error) {
	requested := calendar.DayKey(day)

	plan, err := s.Plan(day)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedDay != "" && s.selectedDay != requested {
		return nil, true, nil
	}
	return plan, false, nil
}

// Reconcile 把编辑后的合并列表写回各自的存储，并返回重建后的视图。
// 临时待办的文本/完成/删除直接落待办表；
// 动作派生项只允许翻转完成，且先与当前已解析状态做差分，没变化就不写，
// 避免每次渲染都产生冗余写入；动作派生项在此视图不可改名、不可删除。
func (s *PlannerService) Reconcile(day time.Time, inputs []PlanItemInput) (*DayPlan, error) {
	current, err := s.Plan(day)
	if err != nil {
		return nil, err
	}

	prior := make(map[string]PlanItem, len(current.Items))
	for _, item := range current.Items {
		prior[item.ID] = item
	}

	submitted := make(map[string]bool, len(inputs))

	for _, input := range inputs {
		submitted[input.ID] = true
		before, known := prior[input.ID]

		if input.ActionID != 0 || (known && before.FromAction()) {
			if !known {
				// 不认识的动作派生项：当天并不适用，忽略
				continue
			}
			if before.Completed != input.Completed {
				if _, err := s.completions.SetCompletion(before.ActionID, day, input.Completed); err != nil {
					return nil, err
				}
			}
			continue
		}

		if !known {
			if _, err := s.todos.Create(input.Text); err != nil {
				return nil, err
			}
			continue
		}

		if before.Text != input.Text || before.Completed != input.Completed {
			if _, err := s.todos.Update(input.ID, input.Text, input.Completed); err != nil {
				return nil, err
			}
		}
	}

	// 回传列表中缺席的待办视为删除；动作派生项即使缺席也不动
	for _, item := range current.Items {
		if item.FromAction() || submitted[item.ID] {
			continue
		}
		if err := s.todos.Delete(item.ID); err != nil {
			return nil, err
		}
	}

	return s.Plan(day)
}
