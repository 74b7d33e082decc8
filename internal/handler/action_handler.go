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

type actionPayload struct {
	Name       string             `json:"name"`
	Recurrence service.Recurrence `json:"recurrence"`
}

type completionPayload struct {
	Day       string `json:"day" binding:"required"`
	Completed bool   `json:"completed"`
}

// CreateAction 在目标下新建动作
func (a *API) CreateAction(c *gin.Context) {
	goalID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload actionPayload
	if !bindJSON(c, &payload, "invalid action payload") {
		return
	}

	action, err := a.actions.Create(goalID, service.ActionInput{
		Name:       payload.Name,
		Recurrence: payload.Recurrence,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoalNotFound):
			respondError(c, http.StatusNotFound, "goal not found")
		case errors.Is(err, service.ErrInvalidRecurrence), errors.Is(err, service.ErrActionNameRequired):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "failed to create action")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"action": gin.H{
		"id":         action.ID,
		"goal_id":    action.GoalID,
		"name":       action.Name,
		"recurrence": service.ActionRecurrence(*action),
	}})
}

// UpdateAction 更新动作名称与周期规则，规则变更只影响之后的日期
func (a *API) UpdateAction(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload actionPayload
	if !bindJSON(c, &payload, "invalid action payload") {
		return
	}

	action, err := a.actions.Update(id, service.ActionInput{
		Name:       payload.Name,
		Recurrence: payload.Recurrence,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActionNotFound):
			respondError(c, http.StatusNotFound, "action not found")
		case errors.Is(err, service.ErrInvalidRecurrence), errors.Is(err, service.ErrActionNameRequired):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "failed to update action")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": gin.H{
		"id":         action.ID,
		"goal_id":    action.GoalID,
		"name":       action.Name,
		"recurrence": service.ActionRecurrence(*action),
	}})
}

// DeleteAction 删除动作及其打卡记录
func (a *API) DeleteAction(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.actions.Delete(id); err != nil {
		if errors.Is(err, service.ErrActionNotFound) {
			respondError(c, http.StatusNotFound, "action not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to delete action")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// SetCompletion 幂等写入某动作某天的完成状态
func (a *API) SetCompletion(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload completionPayload
	if !bindJSON(c, &payload, "invalid completion payload") {
		return
	}

	day, err := calendar.ParseDayKey(payload.Day)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid day, expected YYYY-MM-DD")
		return
	}

	record, err := a.completions.SetCompletion(id, day, payload.Completed)
	if err != nil {
		if errors.Is(err, service.ErrActionNotFound) {
			respondError(c, http.StatusNotFound, "action not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to set completion")
		return
	}
	TrackCompletionWrite()

	c.JSON(http.StatusOK, gin.H{"completion": gin.H{
		"action_id": record.ActionID,
		"day":       record.Day,
		"completed": record.Completed,
	}})
}

// ListCompletions 返回动作在指定区间内的打卡记录
func (a *API) ListCompletions(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	from, err := parseDayQuery(c, "from", calendar.AddDays(now, -30))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDayQuery(c, "to", now)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid to date")
		return
	}

	records, err := a.completions.ListBetween(id, from, to)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list completions")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, gin.H{"day": record.Day, "completed": record.Completed})
	}

	c.JSON(http.StatusOK, gin.H{"action_id": id, "completions": items})
}

// ActionStreak 返回动作截至今天的当前连胜
func (a *API) ActionStreak(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	action, err := a.actions.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrActionNotFound) {
			respondError(c, http.StatusNotFound, "action not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load action")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action_id": id,
		"streak":    service.CurrentStreak(*action, time.Now(), 0),
	})
}

// ActionProgress 返回动作在区间内的完成统计与连胜
func (a *API) ActionProgress(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	action, err := a.actions.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrActionNotFound) {
			respondError(c, http.StatusNotFound, "action not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load action")
		return
	}

	now := time.Now()
	from, err := parseDayQuery(c, "from", calendar.AddDays(now, -30))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDayQuery(c, "to", now)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid to date")
		return
	}

	progress := service.CalculateActionProgress(*action, calendar.RangeDays(from, to))

	c.JSON(http.StatusOK, gin.H{
		"action_id":       id,
		"range":           gin.H{"from": calendar.DayKey(from), "to": calendar.DayKey(to)},
		"progress":        progress,
		"current_streak":  service.CurrentStreak(*action, now, 0),
		"longest_streak":  service.LongestStreak(*action, from, to),
		"daily_intensity": service.DailyCompletionIntensity([]db.Action{*action}, from, to),
	})
}
