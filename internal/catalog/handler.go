package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/materials", h.CreateMaterial)
	r.GET("/materials", h.ListMaterials)
	r.GET("/materials/:material_id", h.GetMaterial)
	r.PUT("/materials/:material_id", h.UpdateMaterial)
	r.DELETE("/materials/:material_id", h.DeleteMaterial)
	r.PUT("/materials/:material_id/categories", h.SetCategories)

	// support lists for the cataloging form
	r.GET("/catalog/lists", h.ListSupport)
}

func (h *Handler) CreateMaterial(c *gin.Context) {
	var req CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateMaterial(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/materials/"+strconv.FormatInt(res.MaterialID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetMaterial(c *gin.Context) {
	id, err := paramID(c, "material_id")
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

func (h *Handler) ListMaterials(c *gin.Context) {
	p := Page{
		Limit:  atoiDef(c.Query("limit"), 50),
		Offset: atoiDef(c.Query("offset"), 0),
		Order:  strings.ToLower(c.DefaultQuery("order", "asc")),
	}

	items, total, err := h.svc.ListMaterials(c.Request.Context(), p)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) UpdateMaterial(c *gin.Context) {
	id, err := paramID(c, "material_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid material_id"))
		return
	}

	var req UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}

	res, err := h.svc.UpdateMaterial(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteMaterial(c *gin.Context) {
	id, err := paramID(c, "material_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid material_id"))
		return
	}

	if err := h.svc.DeleteMaterial(c.Request.Context(), id); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) SetCategories(c *gin.Context) {
	id, err := paramID(c, "material_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid material_id"))
		return
	}

	var req SetCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}

	if err := h.svc.SetCategories(c.Request.Context(), id, req.CategoryIDs); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *Handler) ListSupport(c *gin.Context) {
	res, err := h.svc.ListSupport(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func paramID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func atoiDef(s string, d int) int {
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
