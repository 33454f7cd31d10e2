package fields

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"docforge/internal/model"
)

// DateLayout 日期显示格式（与 ja-JP 日历格式一致：不补零）
const DateLayout = "2006/1/2"

var dateInputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
}

// Resolve 按点分路径取值并格式化为显示文本
//
// 任意一段缺失或为 nil 时返回空串，不会 panic。
func Resolve(bag map[string]any, path string) string {
	v, ok := Lookup(bag, path)
	if !ok {
		return ""
	}
	return Format(v)
}

// Lookup 按点分路径取原始值
func Lookup(bag map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if bag == nil || path == "" {
		return nil, false
	}
	var cur any = bag
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok || next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur any, seg string) (any, bool) {
	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[seg]
		return v, ok
	case model.Fields:
		v, ok := t[seg]
		return v, ok
	case map[string]string:
		v, ok := t[seg]
		return v, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	case []map[string]any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	}
	return nil, false
}

// Format 值 → 显示文本：数字千分位，日期日历格式，其余字符串化
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return FormatNumber(f)
		}
		return t.String()
	}
	if f, ok := toFloat(v); ok {
		return FormatNumber(f)
	}
	return fmt.Sprint(v)
}

// FormatNumber 日本语区域千分位：整数不带小数，其余保留 2 位
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	p := message.NewPrinter(language.Japanese)
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return p.Sprintf("%d", int64(f))
	}
	return p.Sprintf("%.2f", f)
}

// Number 取数值；缺失或无法解析时为 0
func Number(bag map[string]any, path string) float64 {
	v, ok := Lookup(bag, path)
	if !ok {
		return 0
	}
	return ToNumber(v)
}

// Numeric 值本身是数值类型时返回该数值（字符串不算）
func Numeric(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToNumber 宽松数值转换（兼容 "1,234" 形式的字符串）
func ToNumber(v any) float64 {
	if f, ok := toFloat(v); ok {
		return f
	}
	switch t := v.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		s = strings.TrimPrefix(s, "¥")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

// Date 取日期；兼容 time.Time 与常见字符串格式
func Date(bag map[string]any, path string) (time.Time, bool) {
	v, ok := Lookup(bag, path)
	if !ok {
		return time.Time{}, false
	}
	return ToDate(v)
}

// ToDate 宽松日期转换
func ToDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateInputLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// Items 读取明细行数组；元素不是对象时跳过
func Items(bag map[string]any, path string) []model.LineItem {
	v, ok := Lookup(bag, path)
	if !ok {
		return nil
	}

	var raw []map[string]any
	switch t := v.(type) {
	case []model.LineItem:
		return t
	case []map[string]any:
		raw = t
	case []any:
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				raw = append(raw, m)
			}
		}
	default:
		return nil
	}

	items := make([]model.LineItem, 0, len(raw))
	for _, m := range raw {
		label := Resolve(m, "label")
		if label == "" {
			label = Resolve(m, "name")
		}
		items = append(items, model.LineItem{
			Label:  label,
			Date:   displayDate(m["date"]),
			Amount: Number(m, "amount"),
			Fee:    Number(m, "fee"),
		})
	}
	return items
}

func displayDate(v any) string {
	if d, ok := ToDate(v); ok {
		return d.Format(DateLayout)
	}
	return Format(v)
}
