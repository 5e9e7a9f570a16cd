package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	taxdomain "github.com/facturio/facturio/internal/tax/domain"
)

func (s *Server) CreateTaxRule(c *gin.Context) {
	var req taxdomain.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxSvc.CreateRule(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTaxRules(c *gin.Context) {
	var query struct {
		Name      string `form:"name"`
		Code      string `form:"code"`
		Scope     string `form:"scope"`
		IsEnabled *bool  `form:"is_enabled"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxSvc.ListRules(c.Request.Context(), taxdomain.ListRulesRequest{
		Name:      strings.TrimSpace(query.Name),
		Code:      strings.TrimSpace(query.Code),
		Scope:     strings.TrimSpace(query.Scope),
		IsEnabled: query.IsEnabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTaxRule(c *gin.Context) {
	var req taxdomain.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.taxSvc.UpdateRule(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// DisableTaxRule retires a rule from future computations. Rules are never
// deleted; stored documents keep referencing them by id.
func (s *Server) DisableTaxRule(c *gin.Context) {
	resp, err := s.taxSvc.DisableRule(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isTaxValidationError(err error) bool {
	switch err {
	case taxdomain.ErrInvalidName,
		taxdomain.ErrInvalidID,
		taxdomain.ErrInvalidTaxCode,
		taxdomain.ErrInvalidTaxKind,
		taxdomain.ErrInvalidTaxRate,
		taxdomain.ErrInvalidTaxAmount,
		taxdomain.ErrInvalidTaxBase,
		taxdomain.ErrInvalidTaxScope,
		taxdomain.ErrInvalidMember:
		return true
	default:
		return false
	}
}
