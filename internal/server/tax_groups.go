package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	taxdomain "github.com/facturio/facturio/internal/tax/domain"
)

func (s *Server) CreateTaxGroup(c *gin.Context) {
	var req taxdomain.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxSvc.CreateGroup(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTaxGroups(c *gin.Context) {
	var query struct {
		Name      string `form:"name"`
		IsEnabled *bool  `form:"is_enabled"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxSvc.ListGroups(c.Request.Context(), taxdomain.ListGroupsRequest{
		Name:      strings.TrimSpace(query.Name),
		IsEnabled: query.IsEnabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTaxGroup(c *gin.Context) {
	var req taxdomain.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.taxSvc.UpdateGroup(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableTaxGroup(c *gin.Context) {
	resp, err := s.taxSvc.DisableGroup(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
