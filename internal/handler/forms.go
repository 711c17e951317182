package handler

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DueDateLayout is what datetime-local inputs submit.
const DueDateLayout = "2006-01-02T15:04"

// TaskForm представляет форму создания или редактирования задачи
type TaskForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description"`
	DueDate     string `form:"due_date" binding:"required,duedate"`
	Priority    string `form:"priority" binding:"required,oneof=1 2 3"`
	IsCompleted bool   `form:"is_completed"`
}

// RegisterForm представляет форму регистрации
type RegisterForm struct {
	Username  string `form:"username" binding:"required,max=150,username"`
	Password1 string `form:"password1" binding:"required,min=8,notnumeric"`
	Password2 string `form:"password2" binding:"required"`
}

// LoginForm представляет форму входа
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// LoginRequest представляет запрос на получение токена
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// TokenResponse представляет ответ с JWT токеном
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the JSON shape of every error.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// ParseDueDate accepts the datetime-local layout (with or without
// seconds), interpreted in loc, or RFC3339.
func ParseDueDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{DueDateLayout, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q", raw)
	}
	return t, nil
}

// RegisterValidators adds the custom form rules to v and makes field errors
// use the form field names.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	rules := map[string]validator.Func{
		"username": func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		},
		"notnumeric": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			for _, r := range s {
				if !unicode.IsDigit(r) {
					return true
				}
			}
			return s == ""
		},
		"duedate": func(fl validator.FieldLevel) bool {
			_, err := ParseDueDate(fl.Field().String(), time.UTC)
			return err == nil
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q validator: %w", tag, err)
		}
	}
	return nil
}
