package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasklist/internal/apperr"
	"tasklist/internal/auth"
	"tasklist/internal/i18n"
	"tasklist/internal/middleware"
	"tasklist/internal/model"
	"tasklist/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const jwtSecret = "test-secret-key"

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Get(ctx context.Context, id string) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

// renderErrors отдает ошибки из c.Errors в виде JSON
func renderErrors(c *gin.Context) {
	c.Next()
	last := c.Errors.Last()
	if last == nil {
		return
	}
	status := http.StatusInternalServerError
	if apperr.IsKind(last.Err, apperr.KindAccessDenied) {
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": last.Error()})
}

func setupRouter(sessions middleware.SessionReader, users middleware.UserGetter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(renderErrors)
	r.Use(middleware.Identify(auth.NewTokenManager(jwtSecret, time.Hour), sessions, nil))

	// Маршрут без защиты: показывает, кого распознал Identify
	r.GET("/whoami", func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "user_id": userID})
	})

	// Защищенный маршрут
	protected := r.Group("/protected")
	protected.Use(middleware.RequireUser())
	protected.GET("/resource", func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		c.JSON(http.StatusOK, gin.H{"message": "Access granted", "user_id": userID})
	})

	if users != nil {
		staff := r.Group("/staff")
		staff.Use(middleware.RequireUser(), middleware.RequireStaff(users))
		staff.GET("/resource", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "Staff only"})
		})
	}

	return r
}

func generateTestToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := auth.NewTokenManager(jwtSecret, time.Hour).GenerateToken(userID)
	assert.NoError(t, err)
	return token
}

func TestRequireUser_ValidToken(t *testing.T) {
	// Arrange
	router := setupRouter(nil, nil)
	userID := uuid.New()

	req, _ := http.NewRequest("GET", "/protected/resource", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, userID))

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Access granted")
	assert.Contains(t, resp.Body.String(), userID.String())
}

func TestRequireUser_Anonymous(t *testing.T) {
	// Arrange
	router := setupRouter(nil, nil)

	// Запрос без заголовка авторизации
	req, _ := http.NewRequest("GET", "/protected/resource", nil)

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), i18n.KeyNotAuthorized)
	assert.NotContains(t, resp.Body.String(), "Access granted")
}

func TestIdentify_InvalidTokenStaysAnonymous(t *testing.T) {
	router := setupRouter(nil, nil)

	for _, header := range []string{"Bearer invalid-token", "InvalidFormat token123", "Bearer "} {
		req, _ := http.NewRequest("GET", "/whoami", nil)
		req.Header.Set("Authorization", header)

		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		// Identify никогда не прерывает запрос
		assert.Equal(t, http.StatusOK, resp.Code, header)
		assert.Contains(t, resp.Body.String(), `"authenticated":false`, header)
	}
}

func TestIdentify_SessionCookie(t *testing.T) {
	// Arrange
	sessions := new(MockSessions)
	userID := uuid.New()
	sessions.On("Get", mock.Anything, "good").Return(userID, nil)
	sessions.On("Get", mock.Anything, "stale").Return(uuid.Nil, session.ErrNotFound)
	router := setupRouter(sessions, nil)

	// Act: валидная сессия
	req, _ := http.NewRequest("GET", "/protected/resource", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "good"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), userID.String())

	// Act: просроченная сессия
	req, _ = http.NewRequest("GET", "/protected/resource", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "stale"})
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.Code)
	sessions.AssertExpectations(t)
}

func TestIdentify_BearerWinsOverCookie(t *testing.T) {
	sessions := new(MockSessions)
	router := setupRouter(sessions, nil)
	userID := uuid.New()

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, userID))
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "ignored"})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), userID.String())
	sessions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRequireStaff(t *testing.T) {
	users := new(MockUsers)
	staffID, regularID, ghostID := uuid.New(), uuid.New(), uuid.New()
	users.On("GetByID", mock.Anything, staffID).Return(&model.User{ID: staffID, IsStaff: true}, nil)
	users.On("GetByID", mock.Anything, regularID).Return(&model.User{ID: regularID}, nil)
	users.On("GetByID", mock.Anything, ghostID).Return(nil, nil)
	router := setupRouter(nil, users)

	tests := []struct {
		name   string
		userID uuid.UUID
		status int
	}{
		{name: "staff", userID: staffID, status: http.StatusOK},
		{name: "regular user", userID: regularID, status: http.StatusForbidden},
		{name: "deleted user", userID: ghostID, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "/staff/resource", nil)
			req.Header.Set("Authorization", "Bearer "+generateTestToken(t, tt.userID))

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			assert.Equal(t, tt.status, resp.Code)
		})
	}

	// Анонимный запрос до базы не доходит
	req, _ := http.NewRequest("GET", "/staff/resource", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	users.AssertExpectations(t)
}
