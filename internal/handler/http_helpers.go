package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simpleplan/internal/calendar"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseDayParam 解析路径中的 YYYY-MM-DD 日期参数
func parseDayParam(c *gin.Context, key string) (time.Time, error) {
	return calendar.ParseDayKey(c.Param(key))
}

// parseDayQuery 解析查询串中的日期，缺省时回退到 fallback 所在的自然日
func parseDayQuery(c *gin.Context, key string, fallback time.Time) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return calendar.Truncate(fallback), nil
	}
	return calendar.ParseDayKey(raw)
}
