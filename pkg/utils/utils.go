package utils

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// IsEmpty checks if a string is empty.
func IsEmpty(s string) bool {
	return s == ""
}

// ParseStructEnv binds env vars to struct fields using a mapstructure tag
func ParseStructEnv(cfg interface{}) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if err := viper.BindEnv(tag); err != nil {
			return err
		}
	}
	return viper.Unmarshal(cfg)
}

// FormatConfigErrors logs every failed validation rule of a config struct and
// returns a single error naming the offending fields.
func FormatConfigErrors(logger *zap.Logger, err error, cfg interface{}) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	fields := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		logger.Error("invalid configuration value",
			zap.String("field", fe.Field()),
			zap.String("rule", fe.Tag()),
		)
		fields = append(fields, fe.Field())
	}
	return fmt.Errorf("invalid configuration: %v", fields)
}
