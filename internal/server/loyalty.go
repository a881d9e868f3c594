package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	loyaltydomain "github.com/smallbiznis/storefront/internal/loyalty/domain"
)

func (s *Server) PreviewRedemption(c *gin.Context) {
	var req loyaltydomain.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.CustomerID <= 0 {
		AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer_id"))
		return
	}

	resp, err := s.loyaltySvc.PreviewRedemption(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type redeemablePointsResponse struct {
	CustomerID       string `json:"customer_id"`
	RedeemablePoints int64  `json:"redeemable_points"`
	Value            int64  `json:"value"`
}

func (s *Server) GetRedeemablePoints(c *gin.Context) {
	customerID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer_id"))
		return
	}

	points, err := s.loyaltySvc.GetRedeemablePoints(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": redeemablePointsResponse{
		CustomerID:       c.Param("id"),
		RedeemablePoints: points,
		Value:            s.rules.Get().PointsValue(points),
	}})
}

func isLoyaltyValidationError(err error) bool {
	return errors.Is(err, loyaltydomain.ErrInvalidPoints)
}
