// Package config loads YAML configuration files with .env and environment
// variable overrides.
//
// Environment files are read first: ENV_FILE when set, otherwise .env.local
// followed by .env. Struct fields opt into overrides with an `env:"NAME"`
// tag. A missing config file is allowed when the caller opts in with
// AllowMissingFile, so a container can run on environment alone.
//
//	type Config struct {
//	    Port int `yaml:"port" env:"SITE_RENDERER_PORT"`
//	}
//
//	cfg, err := config.LoadWithDefaults("config.yml", setDefaults, config.AllowMissingFile())
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeFor[time.Duration]()

// EnvError reports an environment variable that does not parse into its field.
type EnvError struct {
	Name  string
	Value string
	Err   error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("env %s=%q: %v", e.Name, e.Value, e.Err)
}

func (e *EnvError) Unwrap() error { return e.Err }

type options struct {
	allowMissing bool
}

// Option tunes Load.
type Option func(*options)

// AllowMissingFile treats a nonexistent config file as empty.
func AllowMissingFile() Option {
	return func(o *options) { o.allowMissing = true }
}

// Load reads path as YAML into a T and applies env overrides.
func Load[T any](path string, opts ...Option) (*T, error) {
	return LoadWithDefaults[T](path, nil, opts...)
}

// LoadWithDefaults reads path, fills unset fields with setDefaults, then
// applies env overrides so the environment always wins.
func LoadWithDefaults[T any](path string, setDefaults func(*T), opts ...Option) (*T, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	var cfg T
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, unmarshalErr)
		}
	case errors.Is(err, fs.ErrNotExist) && o.allowMissing:
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if setDefaults != nil {
		setDefaults(&cfg)
	}

	if envErr := applyEnv(reflect.ValueOf(&cfg).Elem()); envErr != nil {
		return nil, envErr
	}
	return &cfg, nil
}

// GetConfigPath returns CONFIG_PATH when set, otherwise defaultPath.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}

func loadEnvFiles() error {
	names := []string{".env.local", ".env"}
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		names = []string{envFile}
	}

	// godotenv.Load never overwrites, so earlier files take precedence.
	for _, name := range names {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", name, err)
		}
	}
	return nil
}

// applyEnv walks nested structs and returns every variable that failed to parse.
func applyEnv(v reflect.Value) error {
	if v.Kind() != reflect.Struct {
		return nil
	}

	var errs []error
	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			errs = append(errs, applyEnv(field))
			continue
		}

		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		val, ok := os.LookupEnv(name)
		if !ok || val == "" {
			continue
		}
		if err := setField(field, val); err != nil {
			errs = append(errs, &EnvError{Name: name, Value: val, Err: err})
		}
	}
	return errors.Join(errs...)
}

func setField(field reflect.Value, val string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(val)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := parseBool(val)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(val, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean")
	}
}
