package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Static errors for configuration validation.
var (
	// ErrInvalidPadding is returned when defaults.padding is outside 1..16.
	ErrInvalidPadding = errors.New("config: defaults.padding must be between 1 and 16")
	// ErrFarmURLRequired is returned when smedge is the default method without a farm URL.
	ErrFarmURLRequired = errors.New("config: farm.url is required for the smedge method")
	// ErrS3BucketRequired is returned when the s3 metadata backend has no bucket.
	ErrS3BucketRequired = errors.New("config: metadata.s3_bucket is required for the s3 backend")
	// ErrS3RegionRequired is returned when the s3 metadata backend has no region.
	ErrS3RegionRequired = errors.New("config: metadata.s3_region is required for the s3 backend")
	// ErrDirPathRequired is returned when the dir metadata backend has no path.
	ErrDirPathRequired = errors.New("config: metadata.dir_path is required for the dir backend")
	// ErrSQLitePathRequired is returned when the sqlite metadata backend has no path.
	ErrSQLitePathRequired = errors.New("config: metadata.sqlite_path is required for the sqlite backend")
)

var resolutionPattern = regexp.MustCompile(`^[1-9]\d*x[1-9]\d*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("resolution", func(fl validator.FieldLevel) bool {
		return resolutionPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Defaults.Padding < 1 || c.Defaults.Padding > 16 {
		return ErrInvalidPadding
	}
	if c.Defaults.Method == "smedge" && c.Farm.URL == "" {
		return ErrFarmURLRequired
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) validateMetadata() error {
	switch c.Metadata.Backend {
	case "s3":
		if c.Metadata.S3Bucket == "" {
			return ErrS3BucketRequired
		}
		if c.Metadata.S3Region == "" {
			return ErrS3RegionRequired
		}
	case "dir":
		if c.Metadata.DirPath == "" {
			return ErrDirPathRequired
		}
	case "sqlite":
		if c.Metadata.SQLitePath == "" {
			return ErrSQLitePathRequired
		}
	}
	return nil
}
