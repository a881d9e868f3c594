package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/storefront/internal/customer/domain"
	loyaltydomain "github.com/smallbiznis/storefront/internal/loyalty/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name  string `form:"name"`
		Phone string `form:"phone"`
		Email string `form:"email"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Name:      strings.TrimSpace(query.Name),
		Phone:     strings.TrimSpace(query.Phone),
		Email:     strings.TrimSpace(query.Email),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type customerPointsResponse struct {
	CustomerID       string                      `json:"customer_id"`
	Balance          int64                       `json:"balance"`
	RedeemablePoints int64                       `json:"redeemable_points"`
	Entries          []loyaltydomain.LedgerEntry `json:"entries"`
}

func (s *Server) GetCustomerPoints(c *gin.Context) {
	ctx := c.Request.Context()
	customer, err := s.customerSvc.GetByID(ctx, customerdomain.GetCustomerRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	redeemable, err := s.loyaltySvc.GetRedeemablePoints(ctx, customer.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	entries, err := s.loyaltySvc.ListEntries(ctx, customer.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customerPointsResponse{
		CustomerID:       c.Param("id"),
		Balance:          customer.Points,
		RedeemablePoints: redeemable,
		Entries:          entries,
	}})
}

func (s *Server) ReconcileCustomerPoints(c *gin.Context) {
	customerID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, customerdomain.ErrInvalidID)
		return
	}

	resp, err := s.loyaltySvc.ReconcileBalance(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if resp.Corrected {
		s.recordAudit(c, "customer.points_reconcile", "customer", c.Param("id"), map[string]any{
			"previous":   resp.Previous,
			"recomputed": resp.Recomputed,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type referralBonusRequest struct {
	OrderID string `json:"order_id"`
	Points  int64  `json:"points"`
}

func (s *Server) GrantReferralBonus(c *gin.Context) {
	customerID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, customerdomain.ErrInvalidID)
		return
	}

	var req referralBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	orderID, err := parseSnowflakeID(req.OrderID)
	if err != nil {
		AbortWithError(c, newValidationError("order_id", "invalid_order_id", "invalid order_id"))
		return
	}

	resp, err := s.loyaltySvc.GrantReferralBonus(c.Request.Context(), customerID, orderID, req.Points)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if resp.Awarded {
		s.recordAudit(c, "customer.referral_bonus", "customer", c.Param("id"), map[string]any{
			"order_id": req.OrderID,
			"points":   req.Points,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isCustomerValidationError(err error) bool {
	switch {
	case errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidPhone),
		errors.Is(err, customerdomain.ErrInvalidEmail),
		errors.Is(err, customerdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}
