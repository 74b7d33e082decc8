package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simpleplan/internal/service"
)

// ImportSnapshot 导入一份旧版导出的目标快照。
// 旧形态（habits 字段、裸字符串周期）在摄入边界一次性归一化，
// 任何条目非法时整体拒绝，不留半份数据。
func (a *API) ImportSnapshot(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read payload")
		return
	}

	imported, err := a.importer.Import(raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSnapshot) || errors.Is(err, service.ErrInvalidRecurrence) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to import snapshot")
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": imported})
}
