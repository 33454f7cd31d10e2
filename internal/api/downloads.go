package api

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// downloadTTL 一次性下载链接有效期
const downloadTTL = 10 * time.Minute

type download struct {
	filePath  string
	filename  string
	expiresAt time.Time
}

// downloadStore 一次性下载令牌；过期或取走后删除临时文件
type downloadStore struct {
	mu    sync.Mutex
	items map[string]download
}

func newDownloadStore() *downloadStore {
	return &downloadStore{
		items: make(map[string]download),
	}
}

func (s *downloadStore) put(filePath, filename string, now time.Time, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(now)

	token = newRandomToken(24)
	s.items[token] = download{
		filePath:  filePath,
		filename:  filename,
		expiresAt: now.Add(ttl),
	}
	return token
}

// take 取出并移除令牌
func (s *downloadStore) take(token string, now time.Time) (download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(now)

	v, ok := s.items[token]
	if !ok {
		return download{}, false
	}
	delete(s.items, token)
	return v, true
}

// purge 清理过期令牌及其文件
func (s *downloadStore) purge(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(now)
}

func (s *downloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			_ = os.Remove(v.filePath)
			delete(s.items, k)
		}
	}
}

// exportPattern 一次性下载文件名
const exportPattern = "docforge-*.pdf"

// sweepOrphans 删除导出目录中残留的下载文件；令牌只存在内存中，重启后这些文件无人认领
func sweepOrphans(dir string) int {
	matches, err := filepath.Glob(filepath.Join(dir, exportPattern))
	if err != nil {
		return 0
	}
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			logf("[WARN] 删除残留导出文件 %s 失败: %v", m, err)
			continue
		}
		removed++
	}
	return removed
}

// StartSweeper 定期清理过期下载；返回停止函数
func (h *Handler) StartSweeper(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				h.downloads.purge(h.now())
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// stashDownload 把生成结果写入导出目录并返回下载信息
func (h *Handler) stashDownload(c *gin.Context, filename string, data []byte) {
	f, err := os.CreateTemp(h.exportDir, exportPattern)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "写入导出文件失败")
		return
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		errorResponse(c, http.StatusInternalServerError, "写入导出文件失败")
		return
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		errorResponse(c, http.StatusInternalServerError, "写入导出文件失败")
		return
	}

	now := h.now()
	token := h.downloads.put(f.Name(), filename, now, downloadTTL)
	success(c, gin.H{
		"token":       token,
		"downloadUrl": fmt.Sprintf("/api/documents/download/%s", token),
		"expiresAt":   now.Add(downloadTTL),
	})
}

// Download 下载生成好的 PDF（一次性）
// GET /api/documents/download/:token
func (h *Handler) Download(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		errorResponse(c, http.StatusBadRequest, "缺少 token")
		return
	}

	item, ok := h.downloads.take(token, h.now())
	if !ok {
		errorResponse(c, http.StatusNotFound, "下载链接已失效")
		return
	}
	defer os.Remove(item.filePath)

	data, err := os.ReadFile(item.filePath)
	if err != nil {
		errorResponse(c, http.StatusNotFound, "导出文件不存在")
		return
	}
	writePDF(c, item.filename, data)
}
