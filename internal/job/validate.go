package job

import (
	"github.com/go-playground/validator/v10"

	"github.com/maauso/audiosplit/internal/audio"
)

// NewValidator returns a validator with the "audioext" tag registered.
// "audioext" accepts strings whose extension is one of audio.SupportedExtensions.
func NewValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("audioext", func(fl validator.FieldLevel) bool {
		return audio.IsSupported(fl.Field().String())
	})
	return v
}
