package opac

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts the public, unauthenticated catalog endpoints.
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/opac/search", h.Search)
	r.GET("/opac/materials/:material_id", h.GetMaterial)
}

// GET /opac/search?q=&category=
func (h *Handler) Search(c *gin.Context) {
	var categoryID *int64
	if v := c.Query("category"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			categoryID = &id
		}
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}

	items, total, err := h.svc.Search(c.Request.Context(), c.Query("q"), categoryID, p)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	if items == nil {
		items = []Result{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) GetMaterial(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("material_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid material_id"))
		return
	}

	res, err := h.svc.GetMaterial(c.Request.Context(), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

type errorDTO struct {
	Error APIError `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	return errorDTO{Error: APIError{Code: code, Message: msg}}
}

func errorFromErr(err error) errorDTO {
	if api, ok := err.(*APIError); ok {
		return errorDTO{Error: *api}
	}
	return errorBody(CodeInternal, err.Error())
}
