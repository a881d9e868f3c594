package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	stockdomain "github.com/smallbiznis/storefront/internal/stock/domain"
)

func (s *Server) CreateProduct(c *gin.Context) {
	var req productdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)

	resp, err := s.productSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "product.create", "product", resp.ID, map[string]any{
		"slug":  resp.Slug,
		"price": resp.Price,
		"stock": resp.Stock,
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListProducts(c *gin.Context) {
	var query struct {
		Name   string `form:"name"`
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := productdomain.Status(strings.TrimSpace(query.Status))
	switch status {
	case "", productdomain.StatusActive, productdomain.StatusLowStock, productdomain.StatusOutOfStock:
	default:
		AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
		return
	}

	resp, err := s.productSvc.List(c.Request.Context(), productdomain.ListRequest{
		Name:   strings.TrimSpace(query.Name),
		Status: status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProductByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.productSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type restockRequest struct {
	Quantity int64 `json:"quantity"`
}

func (s *Server) RestockProduct(c *gin.Context) {
	productID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, productdomain.ErrInvalidID)
		return
	}

	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.stockSvc.Restock(c.Request.Context(), productID, req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "product.restock", "product", c.Param("id"), map[string]any{
		"quantity": req.Quantity,
		"stock":    resp.Stock,
		"status":   resp.Status,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isProductValidationError(err error) bool {
	switch {
	case errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidStock),
		errors.Is(err, productdomain.ErrInvalidSlug),
		errors.Is(err, productdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isStockValidationError(err error) bool {
	return errors.Is(err, stockdomain.ErrInvalidQuantity)
}
