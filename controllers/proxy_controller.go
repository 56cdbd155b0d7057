package controllers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jamshid-zayniyev/warehouse-admin/services"
	"github.com/jamshid-zayniyev/warehouse-admin/utils"
	"go.uber.org/zap"
)

// ProxyRoute maps a console route onto a backend path. "{id}" in Backend is
// replaced with the :id route parameter.
type ProxyRoute struct {
	Method    string
	Path      string
	Backend   string
	Multipart bool // validate image parts before relaying
}

// CatalogRoutes are the catalog, order, user and site content screens relayed to the backend
var CatalogRoutes = []ProxyRoute{
	{Method: http.MethodGet, Path: "/categories", Backend: "/product/categories/"},
	{Method: http.MethodPost, Path: "/categories", Backend: "/product/categories/"},
	{Method: http.MethodPut, Path: "/categories/:id", Backend: "/product/categories/{id}/"},
	{Method: http.MethodDelete, Path: "/categories/:id", Backend: "/product/categories/{id}/"},
	{Method: http.MethodGet, Path: "/catalog/categories/:id/products", Backend: "/product/category/{id}/products/"},

	{Method: http.MethodPost, Path: "/colors", Backend: "/product/create-color/"},
	{Method: http.MethodPut, Path: "/colors/:id", Backend: "/product/detail-color/{id}/"},
	{Method: http.MethodDelete, Path: "/colors/:id", Backend: "/product/detail-color/{id}/"},

	{Method: http.MethodGet, Path: "/products", Backend: "/product/all/"},
	{Method: http.MethodPost, Path: "/products", Backend: "/product/create/"},
	{Method: http.MethodGet, Path: "/products/:id", Backend: "/product/{id}/"},
	{Method: http.MethodPut, Path: "/products/:id", Backend: "/product/{id}/"},
	{Method: http.MethodDelete, Path: "/products/:id", Backend: "/product/{id}/"},
	{Method: http.MethodPost, Path: "/products/images", Backend: "/product/create-images/", Multipart: true},

	{Method: http.MethodGet, Path: "/product-colors", Backend: "/product/create-product-colors/"},
	{Method: http.MethodPost, Path: "/product-colors", Backend: "/product/create-product-colors/"},
	{Method: http.MethodDelete, Path: "/product-colors/:id", Backend: "/product/detail-product-colors/{id}/"},

	{Method: http.MethodGet, Path: "/product-inputs", Backend: "/product/input/"},
	{Method: http.MethodPost, Path: "/product-inputs", Backend: "/product/input/"},
	{Method: http.MethodPut, Path: "/product-inputs/:id", Backend: "/product/input/{id}/"},
	{Method: http.MethodDelete, Path: "/product-inputs/:id", Backend: "/product/input/{id}/"},

	{Method: http.MethodGet, Path: "/orders", Backend: "/order/all/"},
	{Method: http.MethodPost, Path: "/orders", Backend: "/order/create/"},
	{Method: http.MethodGet, Path: "/orders/:id", Backend: "/order/{id}/"},
	{Method: http.MethodPatch, Path: "/orders/:id/status", Backend: "/order/status/{id}/"},

	{Method: http.MethodGet, Path: "/suppliers", Backend: "/user/supplier/"},
	{Method: http.MethodPost, Path: "/suppliers", Backend: "/user/supplier/"},
	{Method: http.MethodPost, Path: "/suppliers/verify", Backend: "/user/verify/"},

	{Method: http.MethodPut, Path: "/users/:id", Backend: "/user/{id}/"},
	{Method: http.MethodDelete, Path: "/users/:id", Backend: "/user/{id}/"},
	{Method: http.MethodGet, Path: "/users/me", Backend: "/user/me/"},
	{Method: http.MethodPut, Path: "/users/me", Backend: "/user/me-edit/"},
	{Method: http.MethodDelete, Path: "/users/me", Backend: "/user/delete-account/"},

	{Method: http.MethodGet, Path: "/news", Backend: "/about/news/"},
	{Method: http.MethodPost, Path: "/news", Backend: "/about/news/"},
	{Method: http.MethodGet, Path: "/news/:id", Backend: "/about/news/{id}/"},
	{Method: http.MethodPut, Path: "/news/:id", Backend: "/about/news/{id}/"},
	{Method: http.MethodDelete, Path: "/news/:id", Backend: "/about/news/{id}/"},

	{Method: http.MethodGet, Path: "/banners", Backend: "/about/banners/"},
	{Method: http.MethodPost, Path: "/banners", Backend: "/about/banners/"},
	{Method: http.MethodGet, Path: "/banners/:id", Backend: "/about/banners/{id}/"},
	{Method: http.MethodPut, Path: "/banners/:id", Backend: "/about/banners/{id}/"},
	{Method: http.MethodDelete, Path: "/banners/:id", Backend: "/about/banners/{id}/"},

	{Method: http.MethodGet, Path: "/about/:id", Backend: "/about/{id}/"},
	{Method: http.MethodPut, Path: "/about/:id", Backend: "/about/{id}/"},
	{Method: http.MethodDelete, Path: "/about/:id", Backend: "/about/{id}/"},

	{Method: http.MethodGet, Path: "/social-media", Backend: "/about/social-media/"},
	{Method: http.MethodPost, Path: "/social-media", Backend: "/about/social-media/"},
	{Method: http.MethodGet, Path: "/social-media/:id", Backend: "/about/social-media/{id}/"},
	{Method: http.MethodPut, Path: "/social-media/:id", Backend: "/about/social-media/{id}/"},
	{Method: http.MethodDelete, Path: "/social-media/:id", Backend: "/about/social-media/{id}/"},

	{Method: http.MethodGet, Path: "/contact/:id", Backend: "/about/contact/{id}/"},
	{Method: http.MethodPut, Path: "/contact/:id", Backend: "/about/contact/{id}/"},
	{Method: http.MethodDelete, Path: "/contact/:id", Backend: "/about/contact/{id}/"},

	{Method: http.MethodGet, Path: "/our-contact/:id", Backend: "/about/our-contact/{id}/"},
	{Method: http.MethodPut, Path: "/our-contact/:id", Backend: "/about/our-contact/{id}/"},
	{Method: http.MethodDelete, Path: "/our-contact/:id", Backend: "/about/our-contact/{id}/"},
}

// ProxyController relays catalog screens to the backend
type ProxyController struct {
	backend services.BackendClient
	routes  []ProxyRoute
	logger  *zap.Logger
}

// NewProxyController creates a controller serving routes
func NewProxyController(backend services.BackendClient, routes []ProxyRoute, logger *zap.Logger) *ProxyController {
	return &ProxyController{backend: backend, routes: routes, logger: logger}
}

// RegisterRoutes mounts every proxy route on rg
func (ctl *ProxyController) RegisterRoutes(rg *gin.RouterGroup) {
	for _, route := range ctl.routes {
		rg.Handle(route.Method, route.Path, ctl.handler(route))
	}
}

func (ctl *ProxyController) handler(route ProxyRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := route.Backend
		if strings.Contains(path, "{id}") {
			id, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil || id == 0 {
				respondError(c, http.StatusBadRequest, "INVALID_ID", "Id must be a positive integer")
				return
			}
			path = strings.ReplaceAll(path, "{id}", strconv.FormatUint(id, 10))
		}

		token, ok := accessToken(c)
		if !ok {
			return
		}

		fr := services.ForwardRequest{
			Method:   route.Method,
			Path:     path,
			RawQuery: c.Request.URL.RawQuery,
		}

		if route.Multipart {
			body, contentType, err := ctl.imageBody(c)
			if err != nil {
				respondServiceError(c, err)
				return
			}
			fr.Body = body
			fr.ContentType = contentType
		} else if hasBody(c.Request) {
			fr.Body = c.Request.Body
			fr.ContentType = c.ContentType()
		}

		resp, err := ctl.backend.Forward(c.Request.Context(), token, fr)
		if err != nil {
			ctl.logger.Warn("proxy request failed",
				zap.String("method", route.Method),
				zap.String("backend_path", path),
				zap.Error(err))
			respondServiceError(c, err)
			return
		}

		contentType := resp.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(resp.StatusCode, contentType, resp.Body)
	}
}

func (ctl *ProxyController) imageBody(c *gin.Context) (io.Reader, string, error) {
	if err := c.Request.ParseMultipartForm(utils.MaxMultipartMemory); err != nil {
		return nil, "", &utils.FileUploadError{Code: "INVALID_MULTIPART", Message: "Request must be multipart/form-data"}
	}
	defer c.Request.MultipartForm.RemoveAll()

	if err := utils.ValidateImageForm(c.Request.MultipartForm); err != nil {
		return nil, "", err
	}
	return utils.EncodeMultipart(c.Request.MultipartForm)
}

func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}
