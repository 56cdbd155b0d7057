package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"github.com/jamshid-zayniyev/warehouse-admin/services"
	"github.com/jamshid-zayniyev/warehouse-admin/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type consoleFixture struct {
	router  *gin.Engine
	backend *services.MockBackend
	storage *services.MockS3Service
	store   *services.RequestStore
}

// setupConsole builds a router over a seeded mock backend. storage may be nil.
func setupConsole(t *testing.T, storage *services.MockS3Service) *consoleFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, db.AutoMigrate(&models.ActionLog{}), "Failed to migrate test database")

	backend := services.NewMockBackend()
	testutil.SeedConsole(backend)

	logger := zap.NewNop()
	enricher := services.NewEnricher(backend, services.NewMemoryDetailCache(time.Minute), 4, logger)
	store := services.NewRequestStore(backend, enricher, services.NewGormActionJournal(db, logger), logger)

	var reports *services.ReportService
	if storage != nil {
		reports = services.NewReportService(store, storage, logger)
	} else {
		reports = services.NewReportService(store, nil, logger)
	}

	ctl := NewSupplierRequestController(store, reports, logger)
	ctl.now = func() time.Time { return time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC) }

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(testutil.MockAuthMiddleware("auth0|operator", testutil.TestToken))
	ctl.RegisterRoutes(api)

	return &consoleFixture{router: router, backend: backend, storage: storage, store: store}
}

func (f *consoleFixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func (f *consoleFixture) loadFixtureDay(t *testing.T) {
	t.Helper()
	w, _ := f.do(t, http.MethodGet, "/api/v1/supplier-requests?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func errorCode(response map[string]interface{}) string {
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}

func requestList(t *testing.T, data map[string]interface{}) []map[string]interface{} {
	t.Helper()
	raw, ok := data["requests"].([]interface{})
	require.True(t, ok, "requests should be a list")
	out := make([]map[string]interface{}, len(raw))
	for i, r := range raw {
		out[i] = r.(map[string]interface{})
	}
	return out
}

func TestListSupplierRequests(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, f *consoleFixture, response map[string]interface{})
	}{
		{
			name:           "Load a single date",
			path:           "/api/v1/supplier-requests?date=2025-03-10",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, f *consoleFixture, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				assert.Equal(t, float64(3), data["count"])

				requests := requestList(t, data)
				assert.Equal(t, float64(testutil.PendingRequestID), requests[0]["id"])
				assert.Equal(t, "Pending", requests[0]["display_status"])
				assert.Equal(t, []interface{}{"success", "reassign", "reject"}, requests[0]["allowed_actions"])
				supplier := requests[0]["supplier_details"].(map[string]interface{})
				assert.Equal(t, "Acme Supply", supplier["full_name"])
				assert.Len(t, requests[0]["order_details"], 2)

				assert.Equal(t, "Success", requests[1]["display_status"])
				assert.Equal(t, []interface{}{}, requests[1]["allowed_actions"])
				assert.Equal(t, "Rejected", requests[2]["display_status"])

				assert.Equal(t, []string{testutil.TestToken}, f.backend.Tokens())
			},
		},
		{
			name:           "Default scope is today",
			path:           "/api/v1/supplier-requests",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, f *consoleFixture, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				scope := data["scope"].(map[string]interface{})
				assert.Equal(t, "today", scope["range"])
				assert.Equal(t, "2025-03-10", scope["from"])
				assert.Equal(t, float64(3), data["count"])
			},
		},
		{
			name:           "Last seven days query one day at a time",
			path:           "/api/v1/supplier-requests?range=last7",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, f *consoleFixture, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				scope := data["scope"].(map[string]interface{})
				assert.Equal(t, "2025-03-04", scope["from"])
				assert.Equal(t, "2025-03-10", scope["to"])
				assert.Equal(t, 7, f.backend.ListCalls())
			},
		},
		{
			name:           "Yesterday is empty",
			path:           "/api/v1/supplier-requests?range=yesterday",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, f *consoleFixture, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, float64(0), data["count"])
				assert.Equal(t, []interface{}{}, data["requests"])
			},
		},
		{
			name:           "By-date path",
			path:           "/api/v1/supplier-requests/by-date/2025/03/10",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, f *consoleFixture, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, float64(3), data["count"])
			},
		},
		{
			name:           "Malformed date",
			path:           "/api/v1/supplier-requests?date=10-03-2025",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_DATE",
		},
		{
			name:           "Unknown range",
			path:           "/api/v1/supplier-requests?range=fortnight",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_DATE",
		},
		{
			name:           "Impossible calendar date",
			path:           "/api/v1/supplier-requests/by-date/2025/02/30",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_DATE",
		},
		{
			name:           "Non-numeric path date",
			path:           "/api/v1/supplier-requests/by-date/2025/march/10",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_DATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupConsole(t, nil)

			w, response := f.do(t, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				assert.Equal(t, tt.expectedError, errorCode(response))
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, f, response)
			}
		})
	}
}

func TestListSupplierRequests_BackendFailure(t *testing.T) {
	f := setupConsole(t, nil)
	f.backend.ListErr = &services.BackendError{Method: http.MethodGet, Path: "/supplier/supplier-requests/2025/03/10/", StatusCode: http.StatusInternalServerError}

	w, response := f.do(t, http.MethodGet, "/api/v1/supplier-requests?date=2025-03-10", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "BACKEND_ERROR", errorCode(response))
}

func TestSupplierRequestActions(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           interface{}
		skipLoad       bool
		executeErr     error
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, f *consoleFixture, response map[string]interface{})
	}{
		{
			name:           "Mark pending request successful",
			path:           "/api/v1/supplier-requests/7/success",
			body:           map[string]interface{}{"buy_price": "1000"},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, f *consoleFixture, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "success", data["action"])
				assert.Equal(t, float64(7), data["request_id"])
				assert.Equal(t, float64(1), data["reloads"])
				assert.NotContains(t, data, "reload_error")

				requests := requestList(t, data)
				assert.Equal(t, "Success", requests[0]["display_status"])

				executed := f.backend.ExecutedCommands()
				require.Len(t, executed, 1)
				assert.Equal(t, "/supplier/supplier-request/7/success/", executed[0].Path)
			},
		},
		{
			name:           "Numeric buy price is accepted",
			path:           "/api/v1/supplier-requests/7/success",
			body:           map[string]interface{}{"buy_price": 1000.5},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing buy price",
			path:           "/api/v1/supplier-requests/7/success",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeBuyPriceRequired,
		},
		{
			name:           "Negative buy price",
			path:           "/api/v1/supplier-requests/7/success",
			body:           map[string]interface{}{"buy_price": "-0.01"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeInvalidBuyPrice,
		},
		{
			name:           "Malformed body",
			path:           "/api/v1/supplier-requests/7/success",
			body:           map[string]interface{}{"buy_price": []int{1}},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "Settled request is not actionable",
			path:           "/api/v1/supplier-requests/8/reject",
			expectedStatus: http.StatusConflict,
			expectedError:  services.CodeNotActionable,
		},
		{
			name:           "Reassign part of a request",
			path:           "/api/v1/supplier-requests/7/reassign",
			body:           map[string]interface{}{"new_supplier": 9, "quantity": 20, "buy_price": "1000"},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, f *consoleFixture, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				requests := requestList(t, data)
				require.Len(t, requests, 4)
				assert.Equal(t, "Partial", requests[0]["display_status"])
				newSupplier := requests[0]["new_supplier_details"].(map[string]interface{})
				assert.Equal(t, "Nordic Goods", newSupplier["full_name"])

				derived := requests[3]
				assert.Equal(t, float64(9), derived["supplier"])
				assert.Equal(t, float64(7), derived["reassigned_from"])
				assert.Equal(t, float64(20), derived["total_quantity"])
			},
		},
		{
			name:           "Reassign to the same supplier",
			path:           "/api/v1/supplier-requests/7/reassign",
			body:           map[string]interface{}{"new_supplier": 3, "quantity": 20, "buy_price": "1000"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeSelfReassignment,
		},
		{
			name:           "Reassign more than the total",
			path:           "/api/v1/supplier-requests/7/reassign",
			body:           map[string]interface{}{"new_supplier": 9, "quantity": 51, "buy_price": "1000"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeInvalidQuantity,
		},
		{
			name:           "Reject pending request",
			path:           "/api/v1/supplier-requests/7/reject",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, f *consoleFixture, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "reject", data["action"])
				requests := requestList(t, data)
				assert.Equal(t, "Rejected", requests[0]["display_status"])
			},
		},
		{
			name:           "Request outside the loaded list",
			path:           "/api/v1/supplier-requests/999/reject",
			expectedStatus: http.StatusNotFound,
			expectedError:  "REQUEST_NOT_FOUND",
		},
		{
			name:           "Nothing loaded yet",
			path:           "/api/v1/supplier-requests/7/reject",
			skipLoad:       true,
			expectedStatus: http.StatusNotFound,
			expectedError:  "REQUEST_NOT_FOUND",
		},
		{
			name:           "Invalid id",
			path:           "/api/v1/supplier-requests/abc/reject",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_ID",
		},
		{
			name:           "Backend refuses the action",
			path:           "/api/v1/supplier-requests/7/reject",
			executeErr:     &services.BackendError{Method: http.MethodPost, Path: "/supplier/supplier-requests/7/reject/", StatusCode: http.StatusBadRequest, Body: `{"detail":"Already processed"}`},
			expectedStatus: http.StatusBadGateway,
			expectedError:  "BACKEND_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupConsole(t, nil)
			if !tt.skipLoad {
				f.loadFixtureDay(t)
			}
			f.backend.ExecuteErr = tt.executeErr

			w, response := f.do(t, http.MethodPost, tt.path, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				assert.Equal(t, tt.expectedError, errorCode(response))
				if tt.executeErr == nil {
					assert.Empty(t, f.backend.ExecutedCommands(), "rejected actions never reach the backend")
				}
			} else {
				assert.True(t, response["success"].(bool))
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, f, response)
			}
		})
	}
}

func TestCandidates(t *testing.T) {
	f := setupConsole(t, nil)
	f.loadFixtureDay(t)

	w, response := f.do(t, http.MethodGet, "/api/v1/supplier-requests/7/candidates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := response["data"].([]interface{})
	var ids []float64
	for _, c := range data {
		ids = append(ids, c.(map[string]interface{})["id"].(float64))
	}
	assert.ElementsMatch(t, []float64{9, 11}, ids)

	w, response = f.do(t, http.MethodGet, "/api/v1/supplier-requests/999/candidates", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REQUEST_NOT_FOUND", errorCode(response))
}

func TestHistory(t *testing.T) {
	f := setupConsole(t, nil)
	f.loadFixtureDay(t)

	f.do(t, http.MethodPost, "/api/v1/supplier-requests/7/success", map[string]interface{}{})
	f.do(t, http.MethodPost, "/api/v1/supplier-requests/7/success", map[string]interface{}{"buy_price": "1000"})

	w, response := f.do(t, http.MethodGet, "/api/v1/supplier-requests/7/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	entries := response["data"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	second := entries[1].(map[string]interface{})
	assert.Equal(t, models.OutcomeInvalid, first["outcome"])
	assert.Equal(t, models.OutcomeApplied, second["outcome"])
	assert.Equal(t, "success", second["action"])
}

func TestAddProduct(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Add product to an order",
			body:           map[string]interface{}{"order_id": 100, "product_id": 5, "quantity": 2},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Zero quantity",
			body:           map[string]interface{}{"order_id": 100, "product_id": 5, "quantity": 0},
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeInvalidQuantity,
		},
		{
			name:           "Missing product",
			body:           map[string]interface{}{"order_id": 100, "quantity": 1},
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeInvalidReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupConsole(t, nil)
			f.loadFixtureDay(t)

			w, response := f.do(t, http.MethodPost, "/api/v1/supplier-requests/add-product", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(response))
				return
			}
			data := response["data"].(map[string]interface{})
			assert.Equal(t, float64(1), data["reloads"])
			executed := f.backend.ExecutedCommands()
			require.Len(t, executed, 1)
			assert.Equal(t, "/supplier/supplier-requests/add-product/", executed[0].Path)
		})
	}
}

func TestDownloadReport(t *testing.T) {
	f := setupConsole(t, nil)

	w, _ := f.do(t, http.MethodGet, "/api/v1/supplier-requests/report?date=2025-03-10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="supplier-requests-2025-03-10.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.NotZero(t, w.Body.Len())

	_, _, loaded := f.store.Snapshot()
	assert.False(t, loaded, "downloading a report leaves the displayed list alone")
}

func TestExportReport(t *testing.T) {
	t.Run("Uploads and returns a link", func(t *testing.T) {
		f := setupConsole(t, services.NewMockS3Service())

		w, response := f.do(t, http.MethodPost, "/api/v1/supplier-requests/report/export?range=last7", nil)

		require.Equal(t, http.StatusCreated, w.Code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "reports/supplier-requests/2025-03-04_2025-03-10.xlsx", data["key"])
		assert.Equal(t, float64(3), data["count"])
		assert.Contains(t, data["url"], "X-Amz-Expires=86400")
		assert.Equal(t, []string{"reports/supplier-requests/2025-03-04_2025-03-10.xlsx"}, f.storage.Keys())
	})

	t.Run("Storage not configured", func(t *testing.T) {
		f := setupConsole(t, nil)

		w, response := f.do(t, http.MethodPost, "/api/v1/supplier-requests/report/export", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "REPORT_STORAGE_DISABLED", errorCode(response))
	})
}

func TestSupplierRequestRoutes_RequireToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := services.NewMockBackend()
	logger := zap.NewNop()
	store := services.NewRequestStore(backend, services.NewEnricher(backend, nil, 1, logger), nil, logger)
	ctl := NewSupplierRequestController(store, services.NewReportService(store, nil, logger), logger)

	router := gin.New()
	ctl.RegisterRoutes(router.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/supplier-requests", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, backend.ListCalls())
}
