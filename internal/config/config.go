package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Database  DatabaseConfig  `yaml:"database"`
	Markdown  MarkdownConfig  `yaml:"markdown"`
	Media     MediaConfig     `yaml:"media"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host        string `yaml:"host" default:"0.0.0.0"`
	Port        string `yaml:"port" default:"8475"`
	RoutePrefix string `yaml:"route_prefix" default:"/draftfly/v1"`
}

type WordPressConfig struct {
	// BaseURL is the root of the WordPress site, e.g. https://blog.example.com.
	// The client appends /wp-json/wp/v2 itself.
	BaseURL        string `yaml:"base_url" default:""`
	Username       string `yaml:"username" default:""`
	TimeoutSeconds int    `yaml:"timeout_seconds" default:"30"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" default:"./draftfly.db"`
}

type MarkdownConfig struct {
	// Renderer selects the conversion pipeline: "classic" or "mmark".
	Renderer    string `yaml:"renderer" default:"classic"`
	SyntaxTheme string `yaml:"syntax_theme" default:"gruvbox"`
}

type MediaConfig struct {
	FetchTimeoutSeconds int   `yaml:"fetch_timeout_seconds" default:"20"`
	MaxFetchBytes       int64 `yaml:"max_fetch_bytes" default:"10485760"`

	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig controls the optional S3-compatible mirror of sideloaded
// media. Credentials come from the environment, not from this file.
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled" default:"false"`
	Bucket   string `yaml:"bucket" default:""`
	Endpoint string `yaml:"endpoint" default:""`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
	// File receives a JSON copy of every log line and backs the admin log
	// view. Empty disables file logging (and the log endpoints).
	File string `yaml:"file" default:"./draftfly.log"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	AppConfig = config
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int, reflect.Int64:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
