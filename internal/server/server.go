package server

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docforge/internal/api"
	"docforge/internal/config"
	"docforge/internal/service/cache"
	"docforge/internal/service/document"
	"docforge/internal/service/pdf"
	"docforge/internal/service/render"
	"docforge/internal/service/template"
	"docforge/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	redis  *cache.RedisBackend
	api    *api.Handler
	stop   func()
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Printf("[WARN] 创建数据目录失败，使用配置路径: %v", err)
		dataDir = cfg.Data.DataDir
	}
	dbPath := filepath.Join(dataDir, "docforge.db")

	sqliteStore, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	templateDir := resolveTemplateDir(cfg, sqliteStore)
	locator := template.NewLocator(templateDir)

	chrome := render.NewChrome(cfg.Render.ChromeBin, cfg.Render.Timeout())
	if !chrome.Available() {
		log.Printf("[WARN] 未找到 Chrome/Chromium，表格模板将回退到自由绘制")
	}

	generator := document.NewGenerator(document.Options{
		Locator:    locator,
		Rasterizer: chrome,
		Fonts:      resolveFonts(cfg, pdf.SystemFontCandidates),
		TempDir:    filepath.Join(dataDir, "tmp"),
	})

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
	}

	var backend cache.Backend
	if addr := strings.TrimSpace(cfg.Cache.RedisAddr); addr != "" {
		s.redis = cache.NewRedisBackend(cache.RedisOptions{
			Addr:     addr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		backend = s.redis
	}

	s.api = api.NewHandler(api.Options{
		Store:       sqliteStore,
		Generator:   generator,
		Identifiers: cache.New(cfg.Cache.TTL(), cache.SystemClock{}, backend),
		Locator:     locator,
		ExportDir:   filepath.Join(dataDir, "exports"),
	})

	s.stop = s.api.StartSweeper(time.Minute)
	s.setupRoutes()

	return s, nil
}

// resolveTemplateDir 数据库中保存的模板目录优先于配置文件
func resolveTemplateDir(cfg *config.AppConfig, st *store.Store) string {
	if v, err := st.GetConfig(store.ConfigTemplateDir); err == nil && strings.TrimSpace(v) != "" {
		return config.ResolvePath(strings.TrimSpace(v))
	}
	return config.ResolvePath(cfg.Templates.Dir)
}

// resolveFonts 配置的字体优先，未配置时查找系统日文字体；都没有则告警
func resolveFonts(cfg *config.AppConfig, candidates []string) pdf.Fonts {
	configured := config.ResolvePath(strings.TrimSpace(cfg.Fonts.Path))
	fonts := pdf.Fonts{Path: configured}
	if fonts.Unicode() {
		return fonts
	}
	if configured != "" {
		log.Printf("[WARN] 字体文件不可用: %s", configured)
	}
	if found := pdf.FindFont(candidates...); found != "" {
		log.Printf("[INFO] 使用系统字体: %s", found)
		return pdf.Fonts{Path: found}
	}
	log.Printf("[WARN] 未找到日文 TTF 字体，叠字与自由绘制中的日文将无法显示；请配置 fonts.path 或 DOCFORGE_FONT_PATH")
	return pdf.Fonts{}
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Document-Id")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		s.api.RegisterRoutes(api)
	}

	s.router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 关闭数据库与缓存连接
func (s *Server) Close() error {
	if s.stop != nil {
		s.stop()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("[WARN] 关闭 Redis 连接失败: %v", err)
		}
	}
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
