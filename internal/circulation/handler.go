package circulation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/loans", h.RegisterLoan)
	r.GET("/loans", h.ListLoans)
	r.GET("/loans/:key", h.GetLoan)
	r.POST("/returns", h.RegisterReturn)
}

// POST /loans
func (h *Handler) RegisterLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.RegisterLoan(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/loans/"+res.LoanULID)
	c.JSON(http.StatusCreated, res)
}

// POST /returns
func (h *Handler) RegisterReturn(c *gin.Context) {
	var req CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}

	res, err := h.svc.RegisterReturn(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetLoan(c *gin.Context) {
	res, err := h.svc.GetLoanByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListLoans(c *gin.Context) {
	f := LoanFilter{}
	if v := c.Query("borrower"); v != "" {
		f.BorrowerUsername = &v
	}
	if v := c.Query("material_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MaterialID = &id
		}
	}
	if v := c.Query("status"); v == StatusActive || v == StatusReturned {
		f.Status = &v
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}

	res, total, err := h.svc.ListLoans(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res, "total": total})
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
