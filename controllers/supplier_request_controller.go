package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"github.com/jamshid-zayniyev/warehouse-admin/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SuccessRequest is the body of POST /supplier-requests/:id/success
type SuccessRequest struct {
	BuyPrice decimal.NullDecimal `json:"buy_price"`
}

// ReassignRequest is the body of POST /supplier-requests/:id/reassign
type ReassignRequest struct {
	NewSupplier *uint               `json:"new_supplier"`
	Quantity    *int                `json:"quantity"`
	BuyPrice    decimal.NullDecimal `json:"buy_price"`
}

// AddProductRequest is the body of POST /supplier-requests/add-product
type AddProductRequest struct {
	OrderID   uint `json:"order_id"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// SupplierRequestController serves the supplier-request console
type SupplierRequestController struct {
	store   *services.RequestStore
	reports *services.ReportService
	logger  *zap.Logger
	now     func() time.Time
}

// NewSupplierRequestController creates the controller
func NewSupplierRequestController(store *services.RequestStore, reports *services.ReportService, logger *zap.Logger) *SupplierRequestController {
	return &SupplierRequestController{
		store:   store,
		reports: reports,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRoutes mounts the console routes on rg
func (ctl *SupplierRequestController) RegisterRoutes(rg *gin.RouterGroup) {
	r := rg.Group("/supplier-requests")
	r.GET("", ctl.List)
	r.GET("/by-date/:year/:month/:day", ctl.ListByDate)
	r.GET("/report", ctl.DownloadReport)
	r.POST("/report/export", ctl.ExportReport)
	r.POST("/add-product", ctl.AddProduct)
	r.GET("/:id/candidates", ctl.Candidates)
	r.GET("/:id/history", ctl.History)
	r.POST("/:id/success", ctl.Success)
	r.POST("/:id/reassign", ctl.Reassign)
	r.POST("/:id/reject", ctl.Reject)
}

// List handles GET /supplier-requests?date=YYYY-MM-DD or ?range=today|yesterday|last7|last30.
// Without either parameter it loads today.
func (ctl *SupplierRequestController) List(c *gin.Context) {
	scope, err := ctl.scopeFromQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}
	ctl.load(c, scope)
}

// ListByDate handles GET /supplier-requests/by-date/:year/:month/:day
func (ctl *SupplierRequestController) ListByDate(c *gin.Context) {
	year, errY := strconv.Atoi(c.Param("year"))
	month, errM := strconv.Atoi(c.Param("month"))
	day, errD := strconv.Atoi(c.Param("day"))
	if errY != nil || errM != nil || errD != nil {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", "Year, month and day must be numbers")
		return
	}

	d, err := models.NewDay(year, month, day)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}
	ctl.load(c, models.SingleDay(d))
}

func (ctl *SupplierRequestController) load(c *gin.Context, scope models.DateScope) {
	token, ok := accessToken(c)
	if !ok {
		return
	}

	requests, err := ctl.store.Load(c.Request.Context(), token, scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"scope":    scope,
		"count":    len(requests),
		"requests": requests,
	})
}

// Candidates handles GET /supplier-requests/:id/candidates
func (ctl *SupplierRequestController) Candidates(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	token, ok := accessToken(c)
	if !ok {
		return
	}

	suppliers, err := ctl.store.Candidates(c.Request.Context(), token, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, suppliers)
}

// History handles GET /supplier-requests/:id/history
func (ctl *SupplierRequestController) History(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	logs, err := ctl.store.History(c.Request.Context(), id)
	if err != nil {
		ctl.logger.Error("failed to load action history", zap.Uint("request_id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load action history")
		return
	}
	respondData(c, http.StatusOK, logs)
}

// Success handles POST /supplier-requests/:id/success
func (ctl *SupplierRequestController) Success(c *gin.Context) {
	var req SuccessRequest
	if !bindJSON(c, &req) {
		return
	}
	ctl.dispatch(c, services.SuccessAction{BuyPrice: req.BuyPrice})
}

// Reassign handles POST /supplier-requests/:id/reassign
func (ctl *SupplierRequestController) Reassign(c *gin.Context) {
	var req ReassignRequest
	if !bindJSON(c, &req) {
		return
	}
	ctl.dispatch(c, services.ReassignAction{
		NewSupplier: req.NewSupplier,
		Quantity:    req.Quantity,
		BuyPrice:    req.BuyPrice,
	})
}

// Reject handles POST /supplier-requests/:id/reject
func (ctl *SupplierRequestController) Reject(c *gin.Context) {
	ctl.dispatch(c, services.RejectAction{})
}

func (ctl *SupplierRequestController) dispatch(c *gin.Context, action services.Action) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	token, ok := accessToken(c)
	if !ok {
		return
	}

	result, err := ctl.store.Dispatch(c.Request.Context(), token, id, action)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, actionResponse(result))
}

// AddProduct handles POST /supplier-requests/add-product
func (ctl *SupplierRequestController) AddProduct(c *gin.Context) {
	var req AddProductRequest
	if !bindJSON(c, &req) {
		return
	}
	token, ok := accessToken(c)
	if !ok {
		return
	}

	result, err := ctl.store.AddProduct(c.Request.Context(), token, req.OrderID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, actionResponse(result))
}

// DownloadReport handles GET /supplier-requests/report and streams the workbook
func (ctl *SupplierRequestController) DownloadReport(c *gin.Context) {
	scope, err := ctl.scopeFromQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}
	token, ok := accessToken(c)
	if !ok {
		return
	}

	report, err := ctl.reports.Build(c.Request.Context(), token, scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, services.XLSXContentType, report.Content)
}

// ExportReport handles POST /supplier-requests/report/export and returns a download link
func (ctl *SupplierRequestController) ExportReport(c *gin.Context) {
	scope, err := ctl.scopeFromQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}
	token, ok := accessToken(c)
	if !ok {
		return
	}

	export, err := ctl.reports.Export(c.Request.Context(), token, scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, export)
}

// scopeFromQuery reads ?date or ?range; date wins when both are given
func (ctl *SupplierRequestController) scopeFromQuery(c *gin.Context) (models.DateScope, error) {
	if date := c.Query("date"); date != "" {
		d, err := models.ParseDay(date)
		if err != nil {
			return models.DateScope{}, errors.New("date must be formatted as YYYY-MM-DD")
		}
		return models.SingleDay(d), nil
	}

	r := c.DefaultQuery("range", string(models.RangeToday))
	return models.ResolveQuickRange(models.QuickRange(r), ctl.now())
}

func actionResponse(result *services.ActionResult) gin.H {
	data := gin.H{
		"action":     result.Command.Kind,
		"request_id": result.Command.RequestID,
		"reloads":    result.Reloads,
		"requests":   result.Requests,
	}
	if result.ReloadErr != nil {
		data["reload_error"] = result.ReloadErr.Error()
	}
	return data
}

func requestID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Request id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return false
	}
	return true
}
