package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	discountdomain "github.com/smallbiznis/storefront/internal/discount/domain"
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
)

// Every successful rule write invalidates the store's cached pricing
// snapshot so the next quote sees it.

func (s *Server) CreateCoupon(c *gin.Context) {
	var req coupondomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Code = strings.TrimSpace(req.Code)

	resp, err := s.couponSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCoupons(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.couponSvc.List(c.Request.Context(), coupondomain.ListRequest{
		Code:     strings.TrimSpace(c.Query("code")),
		IsActive: query.IsActive,
		SortBy:   query.SortBy,
		OrderBy:  query.OrderBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCouponByID(c *gin.Context) {
	resp, err := s.couponSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCoupon(c *gin.Context) {
	var req coupondomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.couponSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableCoupon(c *gin.Context) {
	resp, err := s.couponSvc.Disable(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateDiscount(c *gin.Context) {
	var req discountdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	resp, err := s.discountSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDiscounts(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.discountSvc.List(c.Request.Context(), discountdomain.ListRequest{
		Name:     strings.TrimSpace(c.Query("name")),
		IsActive: query.IsActive,
		SortBy:   query.SortBy,
		OrderBy:  query.OrderBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateDiscount(c *gin.Context) {
	var req discountdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))
	req.Name = trimString(req.Name)

	resp, err := s.discountSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateTax(c *gin.Context) {
	var req taxdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	req.Description = trimString(req.Description)

	resp, err := s.taxSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTaxes(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.taxSvc.List(c.Request.Context(), taxdomain.ListRequest{
		Name:     strings.TrimSpace(c.Query("name")),
		Code:     strings.TrimSpace(c.Query("code")),
		IsActive: query.IsActive,
		SortBy:   query.SortBy,
		OrderBy:  query.OrderBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTax(c *gin.Context) {
	var req taxdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))
	req.Name = trimString(req.Name)
	req.Description = trimString(req.Description)

	resp, err := s.taxSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableTax(c *gin.Context) {
	resp, err := s.taxSvc.Disable(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateShippingRate(c *gin.Context) {
	var req shippingdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Country = strings.TrimSpace(req.Country)
	req.Region = trimString(req.Region)

	resp, err := s.shippingSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListShippingRates(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.shippingSvc.List(c.Request.Context(), shippingdomain.ListRequest{
		Country:  strings.TrimSpace(c.Query("country")),
		IsActive: query.IsActive,
		SortBy:   query.SortBy,
		OrderBy:  query.OrderBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateShippingRate(c *gin.Context) {
	var req shippingdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))
	req.Name = trimString(req.Name)
	req.Region = trimString(req.Region)

	resp, err := s.shippingSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidatePricing(c)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
