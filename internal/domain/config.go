package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	m "geokit.dev/tools/geokit/internal/model"
)

// LintConfig holds the resolved settings of one lintwalk invocation.
type LintConfig struct {
	Root          m.Path   `validate:"required"`
	Driver        m.Path   `validate:"required"`
	Shell         string   `validate:"required"`
	ShellArgs     []string
	Variable      string `validate:"required,jsident"`
	ScratchDir    string
	ScratchSuffix string `validate:"excludesall=/\\*"`
	Threads       int    `validate:"min=1"`
	FailFast      bool
	Exclude       []string
	Extensions    []string
	ShardIndex    int `validate:"min=0,ltfield=ShardCount"`
	ShardCount    int `validate:"min=1"`
	Report        m.Path
}

var jsIdentifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("jsident", func(fl validator.FieldLevel) bool {
		return jsIdentifierRe.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register jsident validation: %v", err))
	}

	return v
}

// Validate checks the field constraints of cfg. Exclude patterns are
// compiled separately by CompileExcludes.
func (cfg LintConfig) Validate() error {
	err := configValidator.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}

	return fmt.Errorf("invalid lint configuration: %s", strings.Join(msgs, "; "))
}

// CompileExcludes compiles the exclude patterns.
func (cfg LintConfig) CompileExcludes() ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(cfg.Exclude))

	for _, pattern := range cfg.Exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}
