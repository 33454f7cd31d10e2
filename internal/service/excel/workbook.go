package excel

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ErrTemplateRead 模板存在但无法解析
var ErrTemplateRead = errors.New("excel: template unreadable")

// OpenTemplate 从路径打开模板
func OpenTemplate(path string) (*excelize.File, error) {
	if path == "" {
		return nil, errors.New("template path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("template not found: %w", err)
	}
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateRead, filepath.Base(path), err)
	}
	return wb, nil
}

// CopyToTemp 把模板复制为临时 xlsx，返回临时文件路径
//
// 填充只作用于副本，模板目录中的原文件保持不变；调用方负责删除。
func CopyToTemp(path, dir string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open template: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, "docforge-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create temp workbook: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("copy template: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("close temp workbook: %w", err)
	}
	return dst.Name(), nil
}

// ResolveSheet 选择要填充的工作表：优先目录中声明的表名，否则取第一个
func ResolveSheet(wb *excelize.File, preferred string) (string, error) {
	if wb == nil {
		return "", errors.New("workbook is nil")
	}
	if preferred != "" {
		if idx, err := wb.GetSheetIndex(preferred); err == nil && idx >= 0 {
			return preferred, nil
		}
	}
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrTemplateRead)
	}
	return sheets[0], nil
}
