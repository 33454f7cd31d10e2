package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docforge/internal/store"
)

// ConfigResponse 配置响应
type ConfigResponse struct {
	TemplateDir        string            `json:"templateDir"`        // 当前生效的模板目录
	PendingTemplateDir string            `json:"pendingTemplateDir"` // 已保存，重启后生效
	Values             map[string]string `json:"values"`
}

// UpdateConfigRequest 更新配置请求
type UpdateConfigRequest struct {
	// 使用 map 允许部分更新
	Updates map[string]interface{} `json:"updates"`
}

// GetConfig 获取所有配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	if h.store == nil {
		errorResponse(c, http.StatusServiceUnavailable, "数据库不可用")
		return
	}
	allConfig, err := h.store.GetAllConfig()
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "获取配置失败")
		return
	}
	success(c, ConfigResponse{
		TemplateDir:        h.locator.Dir,
		PendingTemplateDir: allConfig[store.ConfigTemplateDir],
		Values:             allConfig,
	})
}

// UpdateConfig 更新配置
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	if h.store == nil {
		errorResponse(c, http.StatusServiceUnavailable, "数据库不可用")
		return
	}
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "请求格式错误")
		return
	}

	// 遍历更新项
	for key, value := range req.Updates {
		var strValue string

		switch v := value.(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				strValue = "1"
			} else {
				strValue = "0"
			}
		default:
			continue // 跳过不支持的类型
		}

		if err := h.store.SetConfig(key, strValue); err != nil {
			errorResponse(c, http.StatusInternalServerError, "更新配置失败: "+key)
			return
		}
	}

	success(c, gin.H{"message": "配置更新成功，模板目录重启后生效"})
}
