package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks struct tags, then the rules tags cannot express.
// Log level normalization happens in ApplyDefaults; both cases validate.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

func validateCustomRules(cfg *Config) error {
	if cfg.Provider == ProviderEmbedded {
		switch cfg.Storage.Content.Type {
		case "s3":
			if len(cfg.Storage.Content.S3) == 0 {
				return fmt.Errorf("storage.content: type is s3 but the s3 section is empty")
			}
		case "minio":
			if len(cfg.Storage.Content.Minio) == 0 {
				return fmt.Errorf("storage.content: type is minio but the minio section is empty")
			}
		}
	}

	if cfg.Client.RateLimit.Burst > 0 && cfg.Client.RateLimit.OpsPerSecond == 0 {
		return fmt.Errorf("client.rate_limit: burst set without ops_per_second")
	}

	if cfg.Connection.AuthToken != "" && cfg.Connection.KerbTicketCachePath != "" {
		return fmt.Errorf("connection: auth_token and kerb_ticket_cache_path are mutually exclusive")
	}

	return nil
}

// formatValidationError reports the first failing field.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
