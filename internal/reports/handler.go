package reports

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/reports/top-materials", h.TopMaterials)
	r.GET("/reports/overdue", h.Overdue)
}

// GET /reports/top-materials?limit=
func (h *Handler) TopMaterials(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	res, err := h.svc.TopMaterials(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	if res == nil {
		res = []TopMaterial{}
	}
	c.JSON(http.StatusOK, res)
}

// GET /reports/overdue
func (h *Handler) Overdue(c *gin.Context) {
	res, err := h.svc.OverdueLoans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	if res == nil {
		res = []OverdueLoan{}
	}
	c.JSON(http.StatusOK, res)
}
