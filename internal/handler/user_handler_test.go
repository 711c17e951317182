package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tasklist/internal/auth"
	"tasklist/internal/handler"
	"tasklist/internal/model"
	"tasklist/internal/repository"
	"tasklist/internal/session"
	"tasklist/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserRepository, *fakeSessions) {
	catalog := setupCatalog(t)
	renderer, err := web.NewRenderer(time.UTC, nil)
	require.NoError(t, err)

	mockRepo := new(MockUserRepository)
	sessions := newFakeSessions()
	userHandler := handler.NewUserHandler(mockRepo, sessions, auth.NewTokenManager(testSecret, time.Hour), catalog)
	errs := handler.NewErrorHandler(catalog, nil)

	r := gin.New()
	r.SetHTMLTemplate(renderer.Template())
	r.Use(errs.Middleware())
	r.Match([]string{http.MethodGet, http.MethodPost}, "/register/", userHandler.Register)
	r.Match([]string{http.MethodGet, http.MethodPost}, "/login/", userHandler.Login)
	r.POST("/logout/", userHandler.Logout)
	r.POST("/api/token", userHandler.Token)

	return r, mockRepo, sessions
}

func postForm(router *gin.Engine, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func testUser(t *testing.T, username, password string) *model.User {
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &model.User{ID: uuid.New(), Username: username, HashedPassword: hash}
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	router, mockRepo, _ := setupTest(t)

	// Мокаем методы репозитория
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(nil, nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "alice" && auth.CheckPassword("password123", u.HashedPassword)
	})).Return(nil)

	// Act
	resp := postForm(router, "/register/", url.Values{
		"username":  {"alice"},
		"password1": {"password123"},
		"password2": {"password123"},
	})

	// Assert
	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/login/?registered=1", resp.Header().Get("Location"))
	mockRepo.AssertExpectations(t)
}

func TestRegister_UserAlreadyExists(t *testing.T) {
	// Arrange
	router, mockRepo, _ := setupTest(t)

	// Мокаем методы репозитория - пользователь уже существует
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: uuid.New(), Username: "alice"}, nil)

	// Act
	resp := postForm(router, "/register/", url.Values{
		"username":  {"alice"},
		"password1": {"password123"},
		"password2": {"password123"},
	})

	// Assert: форма перерисована с ошибкой, без редиректа
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "A user with that username already exists.")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UsernameTakenOnInsert(t *testing.T) {
	router, mockRepo, _ := setupTest(t)
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(nil, nil)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrUsernameTaken)

	resp := postForm(router, "/register/", url.Values{
		"username":  {"alice"},
		"password1": {"password123"},
		"password2": {"password123"},
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "A user with that username already exists.")
}

func TestRegister_ValidationErrors(t *testing.T) {
	router, mockRepo, _ := setupTest(t)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{
			name: "bad username",
			form: url.Values{"username": {"bad name!"}, "password1": {"password123"}, "password2": {"password123"}},
			want: "username may contain only letters, numbers and @/./",
		},
		{
			name: "short password",
			form: url.Values{"username": {"alice"}, "password1": {"abc"}, "password2": {"abc"}},
			want: "password1 must be at least 8 characters in length",
		},
		{
			name: "numeric password",
			form: url.Values{"username": {"alice"}, "password1": {"12345678"}, "password2": {"12345678"}},
			want: "password1 can",
		},
		{
			name: "mismatch",
			form: url.Values{"username": {"alice"}, "password1": {"password123"}, "password2": {"password124"}},
			want: "The two password fields didn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postForm(router, "/register/", tt.form)

			assert.Equal(t, http.StatusOK, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.want)
		})
	}

	// до базы дело не доходит
	mockRepo.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_ShowsRegisteredMessage(t *testing.T) {
	router, _, _ := setupTest(t)

	req, _ := http.NewRequest("GET", "/login/?registered=1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Your account has been registered, please log in.")
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	router, mockRepo, sessions := setupTest(t)
	user := testUser(t, "alice", "password123")
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)

	// Act
	resp := postForm(router, "/login/", url.Values{"username": {"alice"}, "password": {"password123"}})

	// Assert
	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/tasks/", resp.Header().Get("Location"))

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	userID, err := sessions.Get(context.Background(), cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	mockRepo.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	// Arrange
	router, mockRepo, sessions := setupTest(t)
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(testUser(t, "alice", "correct_password"), nil)
	mockRepo.On("FindByUsername", mock.Anything, "nobody").Return(nil, nil)

	for _, form := range []url.Values{
		{"username": {"alice"}, "password": {"wrong_password"}},
		{"username": {"nobody"}, "password": {"password123"}},
	} {
		// Act
		resp := postForm(router, "/login/", form)

		// Assert
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "Please enter a correct username and password.")
		assert.Empty(t, resp.Result().Cookies())
	}
	assert.Zero(t, sessions.Len())
}

func TestLogout(t *testing.T) {
	router, _, sessions := setupTest(t)
	sid, err := sessions.Create(context.Background(), uuid.New())
	require.NoError(t, err)

	resp := postForm(router, "/logout/", url.Values{}, &http.Cookie{Name: session.CookieName, Value: sid})

	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/login/", resp.Header().Get("Location"))
	assert.Zero(t, sessions.Len())

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestToken(t *testing.T) {
	router, mockRepo, _ := setupTest(t)
	user := testUser(t, "alice", "password123")
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)

	post := func(body any) *httptest.ResponseRecorder {
		jsonBody, _ := json.Marshal(body)
		req, _ := http.NewRequest("POST", "/api/token", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	// Успешный вход
	resp := post(handler.LoginRequest{Username: "alice", Password: "password123"})
	assert.Equal(t, http.StatusOK, resp.Code)
	var token handler.TokenResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &token))
	userID, err := auth.NewTokenManager(testSecret, time.Hour).ParseToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// Неверный пароль
	resp = post(handler.LoginRequest{Username: "alice", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.JSONEq(t, `{"code":401,"message":"Invalid credentials"}`, resp.Body.String())

	// Пустой запрос
	resp = post(map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
