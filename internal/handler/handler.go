package handler

import (
	"tasklist/internal/apperr"
	"tasklist/internal/i18n"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// translator picks the catalog translator for the request's Accept-Language.
func translator(c *gin.Context, catalog *i18n.Catalog) ut.Translator {
	return catalog.Translator(c.GetHeader("Accept-Language"))
}

// bindWithErrors binds the request into form. Validation failures come back
// as translated messages keyed by form field; anything else is a BadRequest.
func bindWithErrors(c *gin.Context, catalog *i18n.Catalog, form any) (map[string]string, error) {
	err := c.ShouldBind(form)
	if err == nil {
		return nil, nil
	}
	if fieldErrs := catalog.FieldErrors(translator(c, catalog), err); len(fieldErrs) > 0 {
		return fieldErrs, nil
	}
	return nil, apperr.Wrap(apperr.KindBadRequest, i18n.KeyBadRequest, err)
}
