package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	pricewindowdomain "github.com/smallbiznis/storefront/internal/pricewindow/domain"
)

func (s *Server) CreatePriceWindow(c *gin.Context) {
	var req pricewindowdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.priceWindowSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "price_window.create", "price_window", resp.ID, map[string]any{
		"name":          resp.Name,
		"start_date":    resp.StartDate,
		"end_date":      resp.EndDate,
		"allow_overlap": resp.AllowOverlap,
		"items":         len(resp.Items),
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPriceWindows(c *gin.Context) {
	activeOn, err := parseOptionalDate(c.Query("active_on"))
	if err != nil {
		AbortWithError(c, newValidationError("active_on", "invalid_active_on", "invalid active_on"))
		return
	}

	resp, err := s.priceWindowSvc.List(c.Request.Context(), pricewindowdomain.ListRequest{
		ActiveOn: activeOn,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPriceWindowByID(c *gin.Context) {
	resp, err := s.priceWindowSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetActivePriceWindow returns the window pricing applies from today, or null.
func (s *Server) GetActivePriceWindow(c *gin.Context) {
	resp, err := s.priceWindowSvc.GetActive(c.Request.Context(), s.today())
	if errors.Is(err, pricewindowdomain.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isPriceWindowValidationError(err error) bool {
	switch {
	case errors.Is(err, pricewindowdomain.ErrInvalidName),
		errors.Is(err, pricewindowdomain.ErrInvalidDate),
		errors.Is(err, pricewindowdomain.ErrInvalidDateRange),
		errors.Is(err, pricewindowdomain.ErrInvalidItems),
		errors.Is(err, pricewindowdomain.ErrTooManyItems),
		errors.Is(err, pricewindowdomain.ErrInvalidPrice),
		errors.Is(err, pricewindowdomain.ErrDuplicateProduct),
		errors.Is(err, pricewindowdomain.ErrProductNotFound),
		errors.Is(err, pricewindowdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}
