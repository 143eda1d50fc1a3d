package server

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// loginPattern restricts logins to characters that survive URLs, log lines
// and the provider fallback email synthesis.
var loginPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// registerValidators installs the custom binding rules the auth payloads
// use. Registration is idempotent.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	// RegisterValidation only errors on an empty tag name.
	_ = v.RegisterValidation("login_chars", func(fl validator.FieldLevel) bool {
		return loginPattern.MatchString(fl.Field().String())
	})
}
