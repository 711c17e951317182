// Package i18n holds the en/ru message catalog and the validator
// translations used by form and error responses.
package i18n

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/ru"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	ru_translations "github.com/go-playground/validator/v10/translations/ru"
)

type Catalog struct {
	uni      *ut.UniversalTranslator
	fallback ut.Translator
}

// New builds the catalog and registers validator translations for every
// supported locale on v. defaultLocale is used when Accept-Language names
// nothing we know.
func New(v *validator.Validate, defaultLocale string) (*Catalog, error) {
	var fallback locales.Translator = en.New()
	if strings.EqualFold(defaultLocale, "ru") {
		fallback = ru.New()
	}
	uni := ut.New(fallback, en.New(), ru.New())

	c := &Catalog{uni: uni}

	for locale, texts := range messages {
		trans, ok := uni.GetTranslator(locale)
		if !ok {
			return nil, fmt.Errorf("translator %q is not registered", locale)
		}
		for key, text := range texts {
			if err := trans.Add(key, text, true); err != nil {
				return nil, fmt.Errorf("add %s message %q: %w", locale, key, err)
			}
		}
		if v != nil {
			if err := registerValidation(v, locale, trans); err != nil {
				return nil, err
			}
		}
	}

	c.fallback, _ = uni.GetTranslator(fallback.Locale())
	return c, nil
}

func registerValidation(v *validator.Validate, locale string, trans ut.Translator) error {
	var err error
	switch locale {
	case "ru":
		err = ru_translations.RegisterDefaultTranslations(v, trans)
	default:
		err = en_translations.RegisterDefaultTranslations(v, trans)
	}
	if err != nil {
		return fmt.Errorf("register %s validator translations: %w", locale, err)
	}

	for _, tag := range customTags {
		key := "validation." + tag
		err := v.RegisterTranslation(tag, trans,
			// тексты уже добавлены из messages
			func(ut.Translator) error { return nil },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, err := t.T(key, fe.Field())
				if err != nil {
					return fe.Error()
				}
				return msg
			},
		)
		if err != nil {
			return fmt.Errorf("register %s translation for %q: %w", locale, tag, err)
		}
	}
	return nil
}

// Translator picks the best translator for an Accept-Language header.
func (c *Catalog) Translator(acceptLanguage string) ut.Translator {
	if trans, ok := c.uni.FindTranslator(parseAcceptLanguage(acceptLanguage)...); ok {
		return trans
	}
	return c.fallback
}

// T translates key, returning the key itself when it is unknown.
func (c *Catalog) T(trans ut.Translator, key string, params ...string) string {
	if trans == nil {
		trans = c.fallback
	}
	msg, err := trans.T(key, params...)
	if err != nil {
		return key
	}
	return msg
}

// Lookup reports whether key is a known message and returns its text.
func (c *Catalog) Lookup(trans ut.Translator, key string) (string, bool) {
	if trans == nil {
		trans = c.fallback
	}
	msg, err := trans.T(key)
	if err != nil {
		return "", false
	}
	return msg, true
}

// FieldErrors maps each failed field of a validation error to its
// translated message. Other errors yield nil.
func (c *Catalog) FieldErrors(trans ut.Translator, err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	if trans == nil {
		trans = c.fallback
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = fe.Translate(trans)
	}
	return out
}

// parseAcceptLanguage returns candidate locales in header order:
// "ru-RU,en;q=0.8" gives ru_RU, ru, en.
func parseAcceptLanguage(header string) []string {
	var out []string
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" || tag == "*" {
			continue
		}
		tag = strings.ReplaceAll(tag, "-", "_")
		lang, region, hasRegion := strings.Cut(tag, "_")
		lang = strings.ToLower(lang)
		if hasRegion {
			out = append(out, lang+"_"+strings.ToUpper(region))
		}
		out = append(out, lang)
	}
	return out
}
