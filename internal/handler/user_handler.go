package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tasklist/internal/auth"
	"tasklist/internal/i18n"
	"tasklist/internal/model"
	"tasklist/internal/repository"
	"tasklist/internal/session"
	"tasklist/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	loginURL      = "/login/"
	registeredURL = "/login/?registered=1"
)

type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
}

type UserHandler struct {
	repo     repository.UserRepositoryInterface
	sessions SessionStore
	tokens   *auth.TokenManager
	catalog  *i18n.Catalog
}

func NewUserHandler(repo repository.UserRepositoryInterface, sessions SessionStore, tokens *auth.TokenManager, catalog *i18n.Catalog) *UserHandler {
	return &UserHandler{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		catalog:  catalog,
	}
}

// Register показывает форму регистрации и создает пользователя
func (h *UserHandler) Register(c *gin.Context) {
	var form RegisterForm
	var fieldErrs map[string]string

	if c.Request.Method == http.MethodPost {
		var err error
		if fieldErrs, err = bindWithErrors(c, h.catalog, &form); err != nil {
			_ = c.Error(err)
			return
		}
		if fieldErrs == nil {
			fieldErrs = map[string]string{}
		}
		trans := translator(c, h.catalog)

		if _, bad := fieldErrs["password2"]; !bad && form.Password1 != form.Password2 {
			fieldErrs["password2"] = h.catalog.T(trans, i18n.KeyPasswordMismatch)
		}

		if len(fieldErrs) == 0 {
			// Проверяем, существует ли пользователь
			existing, err := h.repo.FindByUsername(c.Request.Context(), form.Username)
			if err != nil {
				_ = c.Error(err)
				return
			}
			if existing != nil {
				fieldErrs["username"] = h.catalog.T(trans, i18n.KeyUserExists)
			}
		}

		if len(fieldErrs) == 0 {
			hash, err := auth.HashPassword(form.Password1)
			if err != nil {
				_ = c.Error(err)
				return
			}

			user := &model.User{
				ID:             uuid.New(),
				Username:       form.Username,
				HashedPassword: hash,
			}
			err = h.repo.Create(c.Request.Context(), user)
			switch {
			case errors.Is(err, repository.ErrUsernameTaken):
				// гонка двух регистраций с одним именем
				fieldErrs["username"] = h.catalog.T(trans, i18n.KeyUserExists)
			case err != nil:
				_ = c.Error(err)
				return
			default:
				c.Redirect(http.StatusSeeOther, registeredURL)
				return
			}
		}
	}

	data := h.pageData(c, i18n.KeyRegisterTitle)
	data.Form = RegisterForm{Username: form.Username}
	data.Errors = fieldErrs
	c.HTML(http.StatusOK, web.Register, data)
}

// Login проверяет учетные данные и открывает сессию
func (h *UserHandler) Login(c *gin.Context) {
	var form LoginForm
	data := h.pageData(c, i18n.KeyLoginTitle)

	if c.Request.Method == http.MethodPost {
		fieldErrs, err := bindWithErrors(c, h.catalog, &form)
		if err != nil {
			_ = c.Error(err)
			return
		}

		if len(fieldErrs) == 0 {
			user, err := h.authenticate(c.Request.Context(), form.Username, form.Password)
			if err != nil {
				_ = c.Error(err)
				return
			}
			if user != nil {
				sid, err := h.sessions.Create(c.Request.Context(), user.ID)
				if err != nil {
					_ = c.Error(err)
					return
				}
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(session.CookieName, sid, int(h.sessions.TTL().Seconds()), "/", "", false, true)
				c.Redirect(http.StatusSeeOther, taskListURL)
				return
			}
			data.NonFieldError = h.catalog.T(translator(c, h.catalog), i18n.KeyInvalidCredentials)
		}
		data.Errors = fieldErrs
	} else if c.Query("registered") == "1" {
		data.Message = h.catalog.T(translator(c, h.catalog), i18n.KeyRegistered)
	}

	data.Form = LoginForm{Username: form.Username}
	c.HTML(http.StatusOK, web.Login, data)
}

// Logout закрывает сессию и удаляет cookie
func (h *UserHandler) Logout(c *gin.Context) {
	if sid, err := c.Cookie(session.CookieName); err == nil && sid != "" {
		if err := h.sessions.Delete(c.Request.Context(), sid); err != nil {
			_ = c.Error(err)
			return
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, loginURL)
}

// Token выдает JWT для API-клиентов
// @Summary Issue an API token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Username and password"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/token [post]
func (h *UserHandler) Token(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: http.StatusBadRequest, Message: "Invalid input"})
		return
	}

	user, err := h.authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Code: http.StatusUnauthorized, Message: "Invalid credentials"})
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// authenticate returns nil without an error when the credentials are wrong.
func (h *UserHandler) authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := h.repo.FindByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, err
	}
	if !auth.CheckPassword(password, user.HashedPassword) {
		return nil, nil
	}
	return user, nil
}

func (h *UserHandler) pageData(c *gin.Context, titleKey string) web.PageData {
	return newPageData(c, h.catalog.T(translator(c, h.catalog), titleKey))
}
