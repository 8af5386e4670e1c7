package reservations

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"SIGB-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts the endpoints any authenticated user may call.
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/reservations", h.Reserve)
	r.POST("/reservations/:key/cancel", h.Cancel)
}

// RegisterStaffRoutes mounts the librarian-facing listing.
func RegisterStaffRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/reservations", h.List)
}

// POST /reservations
func (h *Handler) Reserve(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	// readers reserve for themselves, staff may reserve on behalf
	if req.Borrower == "" || !isStaff(c) {
		req.Borrower = auth.CurrentUsername(c)
	}

	res, err := h.svc.Reserve(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/reservations/"+res.ReservationULID)
	c.JSON(http.StatusCreated, res)
}

// POST /reservations/:key/cancel
func (h *Handler) Cancel(c *gin.Context) {
	err := h.svc.Cancel(c.Request.Context(), c.Param("key"), auth.CurrentUsername(c), isStaff(c))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
}

func (h *Handler) List(c *gin.Context) {
	f := ReservationFilter{}
	if v := c.Query("borrower"); v != "" {
		f.BorrowerUsername = &v
	}
	if v := c.Query("material_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MaterialID = &id
		}
	}
	if v := c.Query("status"); v == StatusPending || v == StatusCancelled {
		f.Status = &v
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}

	res, total, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res, "total": total})
}

// ---------- helpers ----------

func isStaff(c *gin.Context) bool {
	v, ok := c.Get(auth.CtxRoleKey)
	if !ok {
		return false
	}
	role, _ := v.(string)
	return auth.Allowed(role, auth.RoleLibrarian)
}

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
