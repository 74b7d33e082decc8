package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/simpleplan/internal/calendar"
	"github.com/simpleplan/internal/service"
)

const selectedDaySessionKey = "selected_day"

type reconcilePayload struct {
	Items []service.PlanItemInput `json:"items"`
}

type selectDayPayload struct {
	Day string `json:"day" binding:"required"`
}

// GetPlan 返回指定日期的合并视图
func (a *API) GetPlan(c *gin.Context) {
	day, err := parseDayParam(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	plan, err := a.planner.Plan(day)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to build day plan")
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// ReconcilePlan 接收编辑后的合并列表并写回各自存储。
// 动作派生项只接受完成状态翻转；待办全量对账，缺席即删除。
func (a *API) ReconcilePlan(c *gin.Context) {
	day, err := parseDayParam(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	var payload reconcilePayload
	if !bindJSON(c, &payload, "invalid plan payload") {
		return
	}

	plan, err := a.planner.Reconcile(day, payload.Items)
	if err != nil {
		if errors.Is(err, service.ErrTodoTextRequired) || errors.Is(err, service.ErrTodoNotFound) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to reconcile day plan")
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// GetSelectedDay 返回会话中记住的选中日期，未选择时回落到今天
func (a *API) GetSelectedDay(c *gin.Context) {
	session := sessions.Default(c)

	day := calendar.DayKey(time.Now())
	if stored, ok := session.Get(selectedDaySessionKey).(string); ok && stored != "" {
		day = stored
	}

	c.JSON(http.StatusOK, gin.H{"day": day})
}

// SelectDay 切换选中日期并写入会话；
// 在途的旧日期视图加载会在完成时按届期作废。
func (a *API) SelectDay(c *gin.Context) {
	var payload selectDayPayload
	if !bindJSON(c, &payload, "invalid day payload") {
		return
	}

	day, err := calendar.ParseDayKey(payload.Day)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid day, expected YYYY-MM-DD")
		return
	}

	a.planner.Select(day)

	session := sessions.Default(c)
	session.Set(selectedDaySessionKey, payload.Day)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to persist selected day")
		return
	}

	plan, stale, err := a.planner.PlanSelected(day)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to build day plan")
		return
	}
	if stale {
		// 期间又切换了日期，本次结果作废，由后到的请求交付
		c.JSON(http.StatusOK, gin.H{"day": payload.Day, "stale": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"day": payload.Day, "plan": plan})
}
