package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jamshid-zayniyev/warehouse-admin/middleware"
	"github.com/jamshid-zayniyev/warehouse-admin/services"
	"github.com/jamshid-zayniyev/warehouse-admin/utils"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondServiceError maps service and backend failures onto the error envelope
func respondServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validationErr *services.ValidationError
	var backendErr *services.BackendError
	var uploadErr *utils.FileUploadError

	switch {
	case errors.As(err, &validationErr):
		status := http.StatusBadRequest
		if validationErr.Code == services.CodeNotActionable {
			status = http.StatusConflict
		}
		respondError(c, status, validationErr.Code, validationErr.Message)
	case errors.As(err, &uploadErr):
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
	case errors.Is(err, services.ErrRequestNotFound):
		respondError(c, http.StatusNotFound, "REQUEST_NOT_FOUND", "Supplier request is not part of the loaded list")
	case errors.Is(err, services.ErrStaleLoad):
		respondError(c, http.StatusConflict, "STALE_LOAD", "A newer load finished first; this result was discarded")
	case errors.Is(err, services.ErrReportStorageDisabled):
		respondError(c, http.StatusServiceUnavailable, "REPORT_STORAGE_DISABLED", "Report storage is not configured")
	case errors.As(err, &backendErr):
		respondError(c, http.StatusBadGateway, "BACKEND_ERROR", backendErr.Error())
	default:
		respondError(c, http.StatusBadGateway, "BACKEND_ERROR", err.Error())
	}
}

// accessToken returns the caller's bearer token or writes a 401
func accessToken(c *gin.Context) (string, bool) {
	token, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract access token")
		return "", false
	}
	return token, true
}
