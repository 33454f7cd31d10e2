package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docforge/internal/model"
	"docforge/internal/service/catalog"
)

// GenerateRequest 直接生成请求
type GenerateRequest struct {
	Fields map[string]any `json:"fields"`
}

// GenerateDocument 按调用方给出的字段包生成 PDF
// POST /api/documents/:kind
//
// ?delivery=link 时返回一次性下载链接，否则直接返回 PDF。
func (h *Handler) GenerateDocument(c *gin.Context) {
	kind, err := model.ParseDocumentKind(c.Param("kind"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	var req GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, "请求格式错误")
			return
		}
	}

	out, err := h.generator.Generate(c.Request.Context(), kind, model.Fields(req.Fields))
	if err != nil {
		logf("[WARN] 生成 %s 失败: %v", kind, err)
		errorResponse(c, statusOf(err), "生成文书失败: "+err.Error())
		return
	}
	h.deliver(c, documentFilename(kind, ""), out)
}

// GenerateContractDocument 从数据库组装字段包并生成 PDF，同时记录发行
// POST /api/contracts/:id/documents/:kind?period=YYYY-MM
func (h *Handler) GenerateContractDocument(c *gin.Context) {
	contractID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || contractID <= 0 {
		errorResponse(c, http.StatusBadRequest, "无效的契约 ID")
		return
	}
	kind, err := model.ParseDocumentKind(c.Param("kind"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, err.Error())
		return
	}
	if h.store == nil {
		errorResponse(c, http.StatusServiceUnavailable, "数据库不可用")
		return
	}

	var period *model.BillingPeriod
	if raw := strings.TrimSpace(c.Query("period")); raw != "" {
		p, err := model.ParseBillingPeriod(raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		period = &p
	} else if kind == model.KindMonthlyInvoice {
		errorResponse(c, http.StatusBadRequest, "月次請求書需要 period 参数 (YYYY-MM)")
		return
	}

	ctx := c.Request.Context()
	bag, bundle, err := h.contractFields(ctx, contractID, period)
	if err != nil {
		errorResponse(c, statusOf(err), err.Error())
		return
	}

	res, err := h.generator.GenerateResult(ctx, kind, bag)
	if err != nil {
		logf("[WARN] 契约 %d 生成 %s 失败: %v", contractID, kind, err)
		errorResponse(c, statusOf(err), "生成文书失败: "+err.Error())
		return
	}

	doc := &model.IssuedDocument{
		ContractID: contractID,
		Kind:       kind,
		Path:       res.Path,
		Size:       len(res.PDF),
		IssuedAt:   h.now(),
	}
	id, err := h.store.RecordIssuedDocument(doc)
	if err != nil {
		// 发行记录失败不影响返回文书
		logf("[WARN] 记录发行失败 contract=%d kind=%s: %v", contractID, kind, err)
	} else {
		c.Header("X-Document-Id", id)
	}

	h.deliver(c, documentFilename(kind, bundle.Contract.OrderNumber), res.PDF)
}

// contractFields 读取契约记录与明细，发行事业者登録番号经缓存取得
func (h *Handler) contractFields(ctx context.Context, contractID int64, period *model.BillingPeriod) (model.Fields, *model.ContractBundle, error) {
	bundle, err := h.store.LoadContractBundle(contractID)
	if err != nil {
		return nil, nil, err
	}

	var items []model.BillingItem
	if period != nil {
		items, err = h.store.ListBillingItems(contractID, period.Year, period.Month)
		if err != nil {
			return nil, nil, err
		}
	}

	bag := bundle.Fields(period, items)

	orgID := bundle.Contract.OrganizationID
	regNo, err := h.identifiers.Get(ctx, fmt.Sprintf("org:%d", orgID), func(context.Context) (string, error) {
		org, err := h.store.GetOrganization(orgID)
		if err != nil {
			return "", err
		}
		return org.RegistrationNumber, nil
	})
	if err != nil {
		logf("[WARN] 读取登録番号失败 organization=%d: %v", orgID, err)
	} else {
		bag.Set("organization.registrationNumber", regNo)
	}
	return bag, bundle, nil
}

// ListContractDocuments 契约的发行历史
// GET /api/contracts/:id/documents
func (h *Handler) ListContractDocuments(c *gin.Context) {
	contractID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || contractID <= 0 {
		errorResponse(c, http.StatusBadRequest, "无效的契约 ID")
		return
	}
	if h.store == nil {
		errorResponse(c, http.StatusServiceUnavailable, "数据库不可用")
		return
	}
	docs, err := h.store.ListIssuedDocuments(contractID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "查询发行记录失败")
		return
	}
	success(c, docs)
}

func (h *Handler) deliver(c *gin.Context, filename string, data []byte) {
	if c.Query("delivery") == "link" {
		h.stashDownload(c, filename, data)
		return
	}
	writePDF(c, filename, data)
}

// documentFilename 例如 "注文書_PO-001.pdf"
func documentFilename(kind model.DocumentKind, suffix string) string {
	base := string(kind)
	if def, ok := catalog.For(kind); ok && def.Sheet != "" {
		base = def.Sheet
	}
	suffix = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '"' {
			return '_'
		}
		return r
	}, strings.TrimSpace(suffix))
	if suffix != "" {
		base += "_" + suffix
	}
	return base + ".pdf"
}
