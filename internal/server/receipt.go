package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
	"go.uber.org/zap"
)

func (s *Server) GetReceipt(c *gin.Context) {
	resp, err := s.orderSvc.GetByReceipt(c.Request.Context(), strings.TrimSpace(c.Param("locator")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadReceiptPDF(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := s.orderSvc.GetByReceipt(ctx, strings.TrimSpace(c.Param("locator")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.receipts.GenerateReceipt(ctx, pdf.FromOrder(*resp, s.cfg.Location()))
	if err != nil {
		logger.FromContext(ctx).Error("render receipt pdf failed",
			zap.String("receipt_locator", resp.ReceiptLocator),
			zap.Error(err),
		)
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	if doc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	c.DataFromReader(http.StatusOK, -1, "application/pdf", doc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, resp.ReceiptLocator),
	})
}
