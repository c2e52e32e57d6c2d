package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/wiregraph/internal/typematch"
)

// Config is the complete settings tree.
type Config struct {
	History  HistoryConfig  `yaml:"history" json:"history"`
	Types    TypesConfig    `yaml:"types" json:"types"`
	Workflow WorkflowConfig `yaml:"workflow" json:"workflow"`
	Layout   LayoutConfig   `yaml:"layout" json:"layout"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// HistoryConfig bounds the undo/redo stacks.
type HistoryConfig struct {
	MaxSize int `yaml:"max_size" json:"max_size" validate:"min=1,max=10000"`
}

// TypesConfig configures the type matcher.
type TypesConfig struct {
	Wildcards []string   `yaml:"wildcards" json:"wildcards" validate:"dive,required"`
	Aliases   [][]string `yaml:"aliases" json:"aliases" validate:"dive,min=2,dive,required"`
}

// WorkflowConfig names the terminal node types.
type WorkflowConfig struct {
	StartType string `yaml:"start_type" json:"start_type" validate:"required,nefield=EndType"`
	EndType   string `yaml:"end_type" json:"end_type" validate:"required"`
}

// LayoutConfig sizes nodes. Units are canvas pixels.
type LayoutConfig struct {
	SlotHeight   float64 `yaml:"slot_height" json:"slot_height" validate:"gt=0"`
	TitleHeight  float64 `yaml:"title_height" json:"title_height" validate:"gte=0"`
	MinWidth     float64 `yaml:"min_width" json:"min_width" validate:"gt=0"`
	WidthPerChar float64 `yaml:"width_per_char" json:"width_per_char" validate:"gt=0"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		History: HistoryConfig{MaxSize: 100},
		Types: TypesConfig{
			Wildcards: slices.Clone(typematch.DefaultWildcards),
			Aliases:   cloneGroups(typematch.DefaultAliases),
		},
		Workflow: WorkflowConfig{
			StartType: "start_flow",
			EndType:   "end_flow",
		},
		Layout: LayoutConfig{
			SlotHeight:   20,
			TitleHeight:  30,
			MinWidth:     140,
			WidthPerChar: 7,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func cloneGroups(groups [][]string) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = slices.Clone(g)
	}
	return out
}

var validate = validator.New()

// Validate checks struct tags and reports every failing field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError joins field errors into one readable message.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := fieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, strings.ToLower(e.Param()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath turns "Config.History.MaxSize" into "history.maxsize".
func fieldPath(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	return strings.ToLower(ns)
}
