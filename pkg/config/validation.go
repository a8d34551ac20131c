package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags plus custom
// rules that cannot be expressed in tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	// Group names must be unique.
	names := make(map[string]bool, len(cfg.Groups))
	for i, group := range cfg.Groups {
		if names[group.Name] {
			return fmt.Errorf("groups[%d]: duplicate group name %q", i, group.Name)
		}
		names[group.Name] = true
	}

	// Members must reference a non-empty role.
	for i, group := range cfg.Groups {
		for actor, role := range group.Members {
			if role == "" {
				return fmt.Errorf("groups[%d]: member %q has an empty role", i, actor)
			}
		}
	}

	// The badger section must decode when badger is selected.
	if cfg.Store.Type == "badger" {
		if _, err := cfg.Store.BadgerConfig(); err != nil {
			return err
		}
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
