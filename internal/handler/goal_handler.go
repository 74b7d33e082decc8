package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/db"
	"github.com/simpleplan/internal/service"
)

type goalPayload struct {
	Title      string `json:"title"`
	Notes      string `json:"notes"`
	TargetDate string `json:"target_date"`
}

type completeGoalPayload struct {
	Completed bool `json:"completed"`
}

// goalToJSON 组装目标的响应体，进度与逾期信息随行
func (a *API) goalToJSON(goal db.Goal, now time.Time) gin.H {
	var targetDate string
	if goal.TargetDate != nil {
		targetDate = calendar.DayKey(*goal.TargetDate)
	}

	actions := make([]gin.H, 0, len(goal.Actions))
	for _, action := range goal.Actions {
		actions = append(actions, a.actionToJSON(action, goal, now))
	}

	return gin.H{
		"id":          goal.ID,
		"title":       goal.Title,
		"notes":       goal.Notes,
		"notes_html":  goal.NotesHTML,
		"target_date": targetDate,
		"completed":   goal.Completed,
		"created_at":  goal.CreatedAt,
		"actions":     actions,
		"progress": gin.H{
			"completion_ratio": service.GoalProgressCompletionRatio(goal),
			"time_elapsed":     service.GoalProgressTimeElapsed(goal, now),
		},
		"overdue":      service.IsGoalOverdue(goal, now),
		"overdue_days": service.OverdueDays(goal, now),
	}
}

func (a *API) actionToJSON(action db.Action, goal db.Goal, now time.Time) gin.H {
	rec := service.ActionRecurrence(action)
	return gin.H{
		"id":               action.ID,
		"goal_id":          action.GoalID,
		"name":             action.Name,
		"recurrence":       rec,
		"recurrence_label": service.FormatRecurrence(rec),
		"created_at":       action.CreatedAt,
		"overdue":          service.IsActionOverdue(action, goal, now),
		"streak":           service.CurrentStreak(action, now, 0),
	}
}

// ListGoals 返回全部目标及其动作快照
func (a *API) ListGoals(c *gin.Context) {
	goals, err := a.goals.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list goals")
		return
	}

	now := time.Now()
	items := make([]gin.H, 0, len(goals))
	for _, goal := range goals {
		items = append(items, a.goalToJSON(goal, now))
	}

	c.JSON(http.StatusOK, gin.H{"goals": items})
}

// GetGoal 返回单个目标
func (a *API) GetGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	goal, err := a.goals.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			respondError(c, http.StatusNotFound, "goal not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load goal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": a.goalToJSON(*goal, time.Now())})
}

// CreateGoal 新建目标
func (a *API) CreateGoal(c *gin.Context) {
	var payload goalPayload
	if !bindJSON(c, &payload, "invalid goal payload") {
		return
	}

	goal, err := a.goals.Create(service.GoalInput{
		Title:      payload.Title,
		Notes:      payload.Notes,
		TargetDate: payload.TargetDate,
	})
	if err != nil {
		if errors.Is(err, service.ErrGoalTitleRequired) {
			respondError(c, http.StatusBadRequest, "goal title is required")
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"goal": a.goalToJSON(*goal, time.Now())})
}

// UpdateGoal 更新目标
func (a *API) UpdateGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload goalPayload
	if !bindJSON(c, &payload, "invalid goal payload") {
		return
	}

	goal, err := a.goals.Update(id, service.GoalInput{
		Title:      payload.Title,
		Notes:      payload.Notes,
		TargetDate: payload.TargetDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoalNotFound):
			respondError(c, http.StatusNotFound, "goal not found")
		case errors.Is(err, service.ErrGoalTitleRequired):
			respondError(c, http.StatusBadRequest, "goal title is required")
		default:
			respondError(c, http.StatusBadRequest, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": a.goalToJSON(*goal, time.Now())})
}

// CompleteGoal 标记目标完成状态
func (a *API) CompleteGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload completeGoalPayload
	if !bindJSON(c, &payload, "invalid payload") {
		return
	}

	goal, err := a.goals.MarkCompleted(id, payload.Completed, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			respondError(c, http.StatusNotFound, "goal not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to update goal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": a.goalToJSON(*goal, time.Now())})
}

// DeleteGoal 删除目标，动作与打卡记录级联清理
func (a *API) DeleteGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.goals.Delete(id); err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			respondError(c, http.StatusNotFound, "goal not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to delete goal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// GoalProgress 按请求的口径返回目标进度
// 两种口径度量不同的东西，调用方按展示场景用 policy 参数各取所需
func (a *API) GoalProgress(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	goal, err := a.goals.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			respondError(c, http.StatusNotFound, "goal not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load goal")
		return
	}

	policy := service.GoalProgressPolicy(c.DefaultQuery("policy", string(service.PolicyCompletionRatio)))
	percentage, err := service.GoalProgress(*goal, policy, time.Now())
	if err != nil {
		respondError(c, http.StatusBadRequest, "unknown progress policy")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"goal_id":    goal.ID,
		"policy":     policy,
		"percentage": percentage,
	})
}
