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

// Validate validates the configuration using struct tags and custom
// rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that
// cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("targets: at least one target must be configured")
	}

	for name, target := range cfg.Targets {
		if name == "" {
			return fmt.Errorf("targets: target name must not be empty")
		}
		switch target.Backend {
		case "badger":
			if target.Badger.Path == "" {
				return fmt.Errorf("targets[%s]: badger backend requires a path", name)
			}
		case "s3":
			if target.S3.Bucket == "" {
				return fmt.Errorf("targets[%s]: s3 backend requires a bucket", name)
			}
			if (target.S3.AccessKeyID == "") != (target.S3.SecretAccessKey == "") {
				return fmt.Errorf("targets[%s]: access_key_id and secret_access_key must be set together", name)
			}
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
