package handler

import (
	"errors"
	"net/http"
	"strings"

	"tasklist/internal/apperr"
	"tasklist/internal/i18n"
	"tasklist/internal/logger"
	"tasklist/internal/middleware"
	"tasklist/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the uniform error page, or its JSON form for API
// and AJAX clients.
type ErrorHandler struct {
	catalog *i18n.Catalog
	log     *zap.Logger
}

func NewErrorHandler(catalog *i18n.Catalog, log *zap.Logger) *ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ErrorHandler{catalog: catalog, log: log}
}

// Middleware renders the last error a handler recorded with c.Error,
// unless a response was already written.
func (h *ErrorHandler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		h.Abort(c, last.Err)
	}
}

// Abort maps err to a status and renders the error page.
func (h *ErrorHandler) Abort(c *gin.Context, err error) {
	code := StatusOf(err)
	if code >= http.StatusInternalServerError {
		logger.WithRequestID(c.Request.Context(), h.log).Error("❌ request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}

	// сообщение ошибки показываем, только если это ключ каталога
	message := ""
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if _, ok := h.catalog.Lookup(nil, appErr.Message); ok {
			message = appErr.Message
		}
	}
	h.Render(c, code, message)
}

// NoRoute отдает 404 для неизвестных маршрутов
func (h *ErrorHandler) NoRoute(c *gin.Context) {
	h.Render(c, http.StatusNotFound, "")
}

// Recovery превращает панику в страницу 500
func (h *ErrorHandler) Recovery(c *gin.Context, recovered any) {
	logger.WithRequestID(c.Request.Context(), h.log).Error("❌ panic recovered",
		zap.Any("panic", recovered),
		zap.String("path", c.Request.URL.Path),
		zap.Stack("stack"),
	)
	h.Render(c, http.StatusInternalServerError, "")
}

// Render writes the error page for code. An empty message falls back to
// the localized default for the code; a catalog key is translated.
func (h *ErrorHandler) Render(c *gin.Context, code int, message string) {
	trans := h.catalog.Translator(c.GetHeader("Accept-Language"))

	if message == "" {
		message = h.catalog.T(trans, defaultMessageKey(code))
	} else if translated, ok := h.catalog.Lookup(trans, message); ok {
		message = translated
	}

	if wantsJSON(c) {
		c.AbortWithStatusJSON(code, ErrorResponse{Code: code, Message: message})
		return
	}

	data := newPageData(c, message)
	data.Code = code
	data.Message = message
	c.HTML(code, web.Error, data)
	c.Abort()
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindAccessDenied:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindBadRequest, apperr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func defaultMessageKey(code int) string {
	switch code {
	case http.StatusBadRequest:
		return i18n.KeyBadRequest
	case http.StatusForbidden:
		return i18n.KeyAccessDenied
	case http.StatusNotFound:
		return i18n.KeyNotFound
	case http.StatusInternalServerError:
		return i18n.KeyServerError
	default:
		return i18n.KeyUnknownError
	}
}

// wantsJSON is true for AJAX calls, the JSON API and clients that prefer
// application/json over HTML.
func wantsJSON(c *gin.Context) bool {
	if isAJAX(c) {
		return true
	}
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/admin/") {
		return true
	}
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func isAJAX(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}

func newPageData(c *gin.Context, title string) web.PageData {
	_, ok := middleware.UserID(c)
	return web.PageData{Title: title, Authenticated: ok}
}
