// Package render 用无头 Chrome 把单页 HTML 打印为 PDF
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"docforge/internal/model"
)

// ErrRasterize 浏览器启动或打印失败
var ErrRasterize = errors.New("render: rasterize failed")

// DefaultTimeout 单次打印的整体超时
const DefaultTimeout = 30 * time.Second

// A4 纸张尺寸（英寸）与打印缩放
const (
	a4WidthInch  = 8.27
	a4HeightInch = 11.69
	printScale   = 0.95
)

// Rasterizer 标记 → PDF 字节
type Rasterizer interface {
	Rasterize(ctx context.Context, markup model.Markup) ([]byte, error)
}

// Chrome 每次调用启动一个独立浏览器实例，结束即销毁
type Chrome struct {
	Bin       string
	Timeout   time.Duration
	NoSandbox bool
}

// NewChrome 创建 Chrome 栅格化器；bin 为空时在 PATH 中查找
func NewChrome(bin string, timeout time.Duration) *Chrome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chrome{Bin: strings.TrimSpace(bin), Timeout: timeout, NoSandbox: true}
}

// Available 是否能找到浏览器可执行文件
func (c *Chrome) Available() bool {
	bin, ok := c.binary()
	if !ok {
		return false
	}
	info, err := os.Stat(bin)
	return err == nil && !info.IsDir()
}

func (c *Chrome) binary() (string, bool) {
	if c.Bin != "" {
		return c.Bin, true
	}
	return launcher.LookPath()
}

// Rasterize 打印为 A4 PDF：保留背景色，等待字体就绪
func (c *Chrome) Rasterize(ctx context.Context, markup model.Markup) (out []byte, err error) {
	bin, ok := c.binary()
	if !ok {
		return nil, fmt.Errorf("%w: no chrome binary found", ErrRasterize)
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// rod 的 Must 系列之外仍可能 panic（连接中断时），统一转成 ErrRasterize
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrRasterize, r)
		}
	}()

	l := launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(true).
		Leakless(false).
		NoSandbox(c.NoSandbox)
	defer l.Kill()

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch: %v", ErrRasterize, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrRasterize, err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Printf("[WARN] 关闭浏览器失败: %v", cerr)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: open page: %v", ErrRasterize, err)
	}
	if err := page.SetDocumentContent(string(markup)); err != nil {
		return nil, fmt.Errorf("%w: set content: %v", ErrRasterize, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: wait load: %v", ErrRasterize, err)
	}
	if _, err := page.Eval(`() => document.fonts.ready.then(() => true)`); err != nil {
		return nil, fmt.Errorf("%w: fonts: %v", ErrRasterize, err)
	}

	stream, err := page.PDF(printOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: print: %v", ErrRasterize, err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf: %v", ErrRasterize, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty pdf", ErrRasterize)
	}
	return data, nil
}

// printOptions 固定 A4、保留背景，只输出第一页
func printOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
		Scale:             gson.Num(printScale),
		PaperWidth:        gson.Num(a4WidthInch),
		PaperHeight:       gson.Num(a4HeightInch),
		PageRanges:        "1",
	}
}
