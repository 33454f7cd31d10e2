package document

import (
	"errors"

	"docforge/internal/service/excel"
	"docforge/internal/service/pdf"
	"docforge/internal/service/render"
)

// ErrUnknownKind 请求了未定义的文书类型
var ErrUnknownKind = errors.New("document: unknown kind")

// 各路径的失败类型；模板路径上的这些错误只记录日志并转入自由绘制
var (
	ErrTemplateRead = excel.ErrTemplateRead
	ErrPageTemplate = pdf.ErrTemplateRead
	ErrRasterize    = render.ErrRasterize
	ErrCompose      = pdf.ErrCompose
)
