package validator

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/pixelplay/notify-api/internal/model"
)

// notifCategory accepts the closed set of notification categories.
func notifCategory(fl validator.FieldLevel) bool {
	return model.NotificationCategory(fl.Field().String()).Valid()
}

// Register installs custom validations on gin's binding engine. Call once
// at startup, before any request binding happens.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine: %T", binding.Validator.Engine())
	}

	if err := v.RegisterValidation("notifcategory", notifCategory); err != nil {
		return fmt.Errorf("failed to register notifcategory validation: %w", err)
	}

	return nil
}
