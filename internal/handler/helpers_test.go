package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"tasklist/internal/admin"
	"tasklist/internal/auth"
	"tasklist/internal/handler"
	"tasklist/internal/i18n"
	"tasklist/internal/listing"
	"tasklist/internal/middleware"
	"tasklist/internal/repository"
	"tasklist/internal/session"
	"tasklist/internal/testutil"
	"tasklist/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// fakeSessions хранит сессии в памяти
type fakeSessions struct {
	mu   sync.Mutex
	byID map[string]uuid.UUID
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[string]uuid.UUID{}}
}

func (f *fakeSessions) Create(_ context.Context, userID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.byID[id] = userID
	return id, nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.byID[id]
	if !ok {
		return uuid.Nil, session.ErrNotFound
	}
	return userID, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeSessions) TTL() time.Duration { return time.Hour }

func (f *fakeSessions) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// setupCatalog регистрирует валидаторы на движке gin и строит каталог
func setupCatalog(t *testing.T) *i18n.Catalog {
	t.Helper()
	gin.SetMode(gin.TestMode)
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	require.NoError(t, handler.RegisterValidators(v))
	catalog, err := i18n.New(v, "en")
	require.NoError(t, err)
	return catalog
}

type testApp struct {
	router   *gin.Engine
	db       *gorm.DB
	sessions *fakeSessions
	tokens   *auth.TokenManager
}

// newTestApp собирает роутер так же, как server, но на sqlite и сессиях в памяти
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	catalog := setupCatalog(t)

	db := testutil.OpenDB(t, nil)
	renderer, err := web.NewRenderer(time.UTC, nil)
	require.NoError(t, err)

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	sessions := newFakeSessions()
	tokens := auth.NewTokenManager(testSecret, time.Hour)

	registry := admin.Default()
	lister, err := admin.NewTaskLister(registry, taskRepo, time.UTC, nil)
	require.NoError(t, err)

	errs := handler.NewErrorHandler(catalog, nil)
	tasks := handler.NewTaskHandler(taskRepo, listing.NewPipeline(taskRepo, time.UTC, nil), renderer, catalog, time.UTC)
	users := handler.NewUserHandler(userRepo, sessions, tokens, catalog)
	admins := handler.NewAdminHandler(registry, lister)

	r := gin.New()
	r.SetHTMLTemplate(renderer.Template())
	r.Use(gin.CustomRecovery(errs.Recovery))
	r.Use(errs.Middleware())
	r.Use(middleware.Identify(tokens, sessions, nil))
	r.NoRoute(errs.NoRoute)

	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	r.Match([]string{http.MethodGet, http.MethodPost}, "/register/", users.Register)
	r.Match([]string{http.MethodGet, http.MethodPost}, "/login/", users.Login)
	r.POST("/logout/", users.Logout)
	r.POST("/api/token", users.Token)

	g := r.Group("/tasks", middleware.RequireUser())
	g.GET("/", tasks.List)
	g.Match([]string{http.MethodGet, http.MethodPost}, "/new/", tasks.New)
	g.Match([]string{http.MethodGet, http.MethodPost}, "/:id/edit/", tasks.Edit)
	g.Match([]string{http.MethodGet, http.MethodPost}, "/:id/delete/", tasks.Delete)
	g.POST("/:id/toggle/", tasks.Toggle)

	staff := r.Group("/admin", middleware.RequireUser(), middleware.RequireStaff(userRepo))
	staff.GET("/", admins.Index)
	staff.GET("/tasks/", admins.ListTasks)

	return &testApp{router: r, db: db, sessions: sessions, tokens: tokens}
}

type requestOption func(*http.Request)

func asUser(t *testing.T, tokens *auth.TokenManager, userID uuid.UUID) requestOption {
	token, err := tokens.GenerateToken(userID)
	require.NoError(t, err)
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func ajax() requestOption {
	return withHeader("X-Requested-With", "XMLHttpRequest")
}

func (a *testApp) do(method, target string, form url.Values, opts ...requestOption) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, _ := http.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, opt := range opts {
		opt(req)
	}
	resp := httptest.NewRecorder()
	a.router.ServeHTTP(resp, req)
	return resp
}
