// Package api 文书生成 HTTP 接口
package api

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"docforge/internal/service/cache"
	"docforge/internal/service/document"
	"docforge/internal/service/template"
	"docforge/internal/store"
)

var logf = log.Printf

// Handler API 处理器
type Handler struct {
	store       *store.Store
	generator   *document.Generator
	identifiers *cache.IdentifierCache
	locator     *template.Locator
	downloads   *downloadStore
	exportDir   string
	now         func() time.Time
}

// Options 处理器依赖
type Options struct {
	Store       *store.Store
	Generator   *document.Generator
	Identifiers *cache.IdentifierCache
	Locator     *template.Locator
	ExportDir   string // 一次性下载文件的存放目录
}

// NewHandler 创建 API 处理器
func NewHandler(opts Options) *Handler {
	h := &Handler{
		store:       opts.Store,
		generator:   opts.Generator,
		identifiers: opts.Identifiers,
		locator:     opts.Locator,
		downloads:   newDownloadStore(),
		exportDir:   opts.ExportDir,
		now:         time.Now,
	}
	if h.generator == nil {
		h.generator = document.NewGenerator(document.Options{Locator: h.locator})
	}
	if h.identifiers == nil {
		h.identifiers = cache.New(0, nil, nil)
	}
	if h.exportDir == "" {
		h.exportDir = os.TempDir()
	} else if n := sweepOrphans(h.exportDir); n > 0 {
		logf("[INFO] 清理残留导出文件 %d 个", n)
	}
	if h.locator == nil {
		h.locator = template.NewLocator("")
	}
	return h
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/templates", h.ListTemplates)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 文书生成
	router.POST("/documents/:kind", h.GenerateDocument)
	router.GET("/documents/download/:token", h.Download)

	// 契约文书
	router.POST("/contracts/:id/documents/:kind", h.GenerateContractDocument)
	router.GET("/contracts/:id/documents", h.ListContractDocuments)
}
