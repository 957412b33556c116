// Package config reads the settings of the command line tool from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/robotomize/gocyconv/label"
)

// DefaultEnvFile is read when present, missing it is not an error
const DefaultEnvFile = ".env"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})

	return v
}

type Config struct {
	AppID          string        `env:"OXR_APP_ID" env-required:"true" env-description:"openexchangerates.org App ID" validate:"required"`
	BaseURL        string        `env:"OXR_BASE_URL" env-default:"https://openexchangerates.org/api" env-description:"API root" validate:"required,url"`
	BaseCurrency   string        `env:"OXR_BASE_CURRENCY" env-default:"USD" env-description:"currency all rates are quoted against" validate:"required"`
	SnapshotPath   string        `env:"OXR_SNAPSHOT_PATH" env-default:"currency_log.json" env-description:"file for exported rates" validate:"required"`
	MaxAge         time.Duration `env:"OXR_MAX_AGE" env-default:"1h" env-description:"how long fetched rates stay fresh" validate:"gt=0"`
	RequestTimeout time.Duration `env:"OXR_REQUEST_TIMEOUT" env-default:"10s" env-description:"timeout of one HTTP request" validate:"gt=0"`
	RetryNum       uint64        `env:"OXR_RETRY_NUM" env-default:"1" env-description:"retries after a connectivity failure"`
	RetryDuration  time.Duration `env:"OXR_RETRY_DURATION" env-default:"5s" env-description:"pause between retries" validate:"gt=0"`
}

// Load applies envFile to the process environment without overriding variables that are
// already set, then reads Config from the environment
func Load(envFile string) (Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadEnvFile(envFile string) error {
	if envFile == "" {
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		if envFile == DefaultEnvFile && errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("load %s: %w", envFile, err)
	}

	return nil
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var merr *multierror.Error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate struct: %w", err)
		}

		for _, fe := range fieldErrs {
			merr = multierror.Append(merr, fmt.Errorf("%s: %q does not pass %q", fe.Field(), fe.Value(), fe.Tag()))
		}
	}

	if _, err := label.ParseSymbol(c.BaseCurrency); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("OXR_BASE_CURRENCY: %w", err))
	}

	if _, err := c.URL(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("OXR_BASE_URL: %w", err))
	}

	return merr.ErrorOrNil()
}

func (c Config) Base() label.Symbol {
	return label.MustParseSymbol(c.BaseCurrency)
}

func (c Config) URL() (url.URL, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return url.URL{}, fmt.Errorf("url parse: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return url.URL{}, fmt.Errorf("%q is not an absolute URL", c.BaseURL)
	}

	return *u, nil
}

// Description lists every variable with its default, for the help output
func Description() string {
	header := "Environment variables (also read from " + DefaultEnvFile + "):"
	text, err := cleanenv.GetDescription(&Config{}, &header)
	if err != nil {
		return header
	}

	return text
}
