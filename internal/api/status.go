package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docforge/internal/model"
	"docforge/internal/service/template"
)

// KindStatus 单个文书类型的状态
type KindStatus struct {
	Kind   model.DocumentKind   `json:"kind"`
	Path   string               `json:"path"`             // 当前会使用的生成路径
	Format model.TemplateFormat `json:"format,omitempty"` // 找到的模板形态
}

// StatusResponse 系统状态响应
type StatusResponse struct {
	TemplateDir string       `json:"templateDir"`
	Kinds       []KindStatus `json:"kinds"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		TemplateDir: h.locator.Dir,
		Kinds:       make([]KindStatus, 0, len(model.AllKinds)),
	}
	for _, kind := range model.AllKinds {
		st := KindStatus{Kind: kind, Path: h.generator.Path(kind)}
		if loc, ok := h.locator.Locate(kind); ok {
			st.Format = loc.Format
		}
		resp.Kinds = append(resp.Kinds, st)
	}
	c.JSON(http.StatusOK, resp)
}

// TemplateInfo 模板定位结果
type TemplateInfo struct {
	Kind       model.DocumentKind  `json:"kind"`
	Found      bool                `json:"found"`
	Location   *template.Location  `json:"location,omitempty"`
	Candidates []template.Location `json:"candidates"`
}

// ListTemplates 各类型的模板定位结果
// GET /api/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	out := make([]TemplateInfo, 0, len(model.AllKinds))
	for _, kind := range model.AllKinds {
		info := TemplateInfo{Kind: kind, Candidates: h.locator.Candidates(kind)}
		if info.Candidates == nil {
			info.Candidates = []template.Location{}
		}
		if loc, ok := h.locator.Locate(kind); ok {
			info.Found = true
			info.Location = &loc
		}
		out = append(out, info)
	}
	success(c, out)
}
