package i18n

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptLanguage(t *testing.T) {
	assert.Equal(t, []string{"ru_RU", "ru", "en"}, parseAcceptLanguage("ru-RU,ru;q=0.9,en;q=0.8"))
	assert.Equal(t, []string{"en"}, parseAcceptLanguage(" EN ; q=1, *"))
	assert.Empty(t, parseAcceptLanguage(""))
}

func TestCatalog_Translator(t *testing.T) {
	c, err := New(nil, "en")
	require.NoError(t, err)

	ru := c.Translator("ru-RU,ru;q=0.9")
	assert.Equal(t, "Страница не найдена.", c.T(ru, KeyNotFound))

	en := c.Translator("de-DE")
	assert.Equal(t, "Page not found.", c.T(en, KeyNotFound))

	// неизвестный ключ возвращается как есть
	assert.Equal(t, "no.such.key", c.T(en, "no.such.key"))
	assert.Equal(t, "Access denied.", c.T(nil, KeyAccessDenied))
}

func TestCatalog_DefaultLocaleRu(t *testing.T) {
	c, err := New(nil, "ru")
	require.NoError(t, err)

	assert.Equal(t, "Вы не авторизованы.", c.T(c.Translator(""), KeyNotAuthorized))
	assert.Equal(t, "You are not authorized.", c.T(c.Translator("en-US"), KeyNotAuthorized))
}

type signup struct {
	Username string `validate:"required,username"`
	Password string `validate:"required,notnumeric"`
}

func TestCatalog_FieldErrors(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("username", func(fl validator.FieldLevel) bool { return false }))
	require.NoError(t, v.RegisterValidation("notnumeric", func(fl validator.FieldLevel) bool { return false }))

	c, err := New(v, "en")
	require.NoError(t, err)

	err = v.Struct(signup{Username: "bad name", Password: "12345678"})
	require.Error(t, err)

	en := c.FieldErrors(c.Translator("en"), err)
	assert.Equal(t, "Username may contain only letters, numbers and @/./+/-/_ characters", en["Username"])
	assert.Equal(t, "Password can't be entirely numeric", en["Password"])

	ru := c.FieldErrors(c.Translator("ru"), v.Struct(signup{}))
	assert.Equal(t, "Username обязательное поле", ru["Username"])

	assert.Nil(t, c.FieldErrors(nil, assert.AnError))
}

func TestCatalog_Lookup(t *testing.T) {
	c, err := New(nil, "en")
	require.NoError(t, err)

	msg, ok := c.Lookup(c.Translator("ru"), KeyNotAuthorized)
	assert.True(t, ok)
	assert.Equal(t, "Вы не авторизованы.", msg)

	_, ok = c.Lookup(nil, "task not found")
	assert.False(t, ok)
}
