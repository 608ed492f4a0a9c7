// Package config loads the application's typed Config struct from process
// environment variables via reflection over "env" struct tags.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv populates every field of the struct pointed to by dst whose tag
// is `env:"KEY"` from the corresponding environment variable. Supported field
// kinds: string, bool, int family, and time.Duration. dst must be a non-nil
// pointer to a struct.
func LoadFromEnv(dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("config: dst must be a non-nil pointer, got %T", dst)
	}

	e := v.Elem()
	t := e.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}

		parts := strings.SplitN(tag, ",", 2)
		key := parts[0]

		raw, present := os.LookupEnv(key)
		if !present {
			if len(parts) == 2 && strings.HasPrefix(parts[1], "default=") {
				raw = strings.TrimPrefix(parts[1], "default=")
			} else {
				continue
			}
		}

		fv := e.Field(i)
		if !fv.CanSet() {
			continue
		}

		if err := setField(fv, raw, key); err != nil {
			return err
		}
	}

	return nil
}

func setField(fv reflect.Value, raw, key string) error {
	if fv.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config: %s: invalid duration %q: %w", key, raw, err)
		}

		fv.SetInt(int64(d))

		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("config: %s: invalid bool %q: %w", key, raw, err)
		}

		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: invalid int %q: %w", key, raw, err)
		}

		fv.SetInt(n)
	default:
		return fmt.Errorf("config: %s: unsupported field kind %s", key, fv.Kind())
	}

	return nil
}
