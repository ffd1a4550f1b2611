package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	ncerr "enigma/internal/errors"
)

// KeySheet is one day's machine setting as stored in a YAML file:
//
//	name: 1944-06-06
//	rotors: [III, VI, I]
//	positions: AEV          # or [1, 5, 22] or "1,5,22"
//	rings: [1, 1, 1]
//	reflector: B
//	plugboard: AB CD EF
//	custom_rotors:
//	  - name: VI
//	    wiring: JPGVOUMFYQBENHZRDKASXLICTW
//	    notches: ZM
type KeySheet struct {
	Name             string         `yaml:"name"`
	Rotors           []string       `yaml:"rotors" validate:"omitempty,min=1,dive,required"`
	Positions        Settings       `yaml:"positions" validate:"omitempty,dive,min=1,max=26"`
	Rings            Settings       `yaml:"rings" validate:"omitempty,dive,min=1,max=26"`
	Reflector        string         `yaml:"reflector"`
	Plugboard        string         `yaml:"plugboard"`
	CustomRotors     []RotorDef     `yaml:"custom_rotors" validate:"dive"`
	CustomReflectors []ReflectorDef `yaml:"custom_reflectors" validate:"dive"`
}

// RotorDef describes a rotor that is not one of the presets.
type RotorDef struct {
	Name    string `yaml:"name" validate:"required"`
	Wiring  string `yaml:"wiring" validate:"required,len=26,alpha"`
	Notches string `yaml:"notches" validate:"required,alpha,max=26"`
}

// ReflectorDef describes a reflector that is not one of the presets.
type ReflectorDef struct {
	Name   string `yaml:"name" validate:"required"`
	Wiring string `yaml:"wiring" validate:"required,len=26,alpha"`
}

// Settings is a list of 1-based rotor settings.  In YAML it may be a
// sequence of numbers or a string accepted by [ParseSettings].
type Settings []int

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		out, err := ParseSettings("keysheet", value.Value)
		if err != nil {
			return err
		}
		*s = out
		return nil
	}
	var out []int
	if err := value.Decode(&out); err != nil {
		return err
	}
	*s = out
	return nil
}

// validate is a singleton validator instance.
var validate = validator.New() //nolint:gochecknoglobals

// LoadKeySheet reads and validates the key sheet at path.
func LoadKeySheet(path string) (*KeySheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("key sheet: %w", err)
	}
	return ParseKeySheet(data)
}

// ParseKeySheet decodes and validates a YAML key sheet.
func ParseKeySheet(data []byte) (*KeySheet, error) {
	var ks KeySheet
	if err := yaml.Unmarshal(data, &ks); err != nil {
		if ncerr.IsConfig(err) {
			return nil, err
		}
		return nil, &ncerr.ConfigError{Field: "keysheet", Message: err.Error()}
	}
	if err := validate.Struct(&ks); err != nil {
		return nil, formatValidationError(err)
	}

	seen := make(map[string]bool)
	for _, d := range ks.CustomRotors {
		key := strings.ToUpper(d.Name)
		if seen[key] {
			return nil, &ncerr.ConfigError{
				Field: "keysheet", Value: d.Name,
				Message: "custom rotor is defined twice",
			}
		}
		seen[key] = true
	}
	return &ks, nil
}

// formatValidationError turns the first failed struct tag into a
// ConfigError naming the key sheet field.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !ncerr.As(err, &verrs) || len(verrs) == 0 {
		return &ncerr.ConfigError{Field: "keysheet", Message: err.Error()}
	}

	e := verrs[0]
	field := strings.TrimPrefix(e.Namespace(), "KeySheet.")
	var msg string
	switch e.Tag() {
	case "required":
		msg = "field is required"
	case "min":
		msg = "must be at least " + e.Param()
	case "max":
		msg = "must not exceed " + e.Param()
	case "len":
		msg = "must be exactly " + e.Param() + " letters"
	case "alpha":
		msg = "must contain only letters A-Z"
	default:
		msg = fmt.Sprintf("validation failed (%s)", e.Tag())
	}
	return &ncerr.ConfigError{
		Field:   "keysheet",
		Value:   e.Value(),
		Message: field + ": " + msg,
	}
}

// ApplyKeySheet fills the key-setting fields that are still unset from
// ks and registers its custom components.  Values already set by the
// environment or flags win.
func (c *Config) ApplyKeySheet(ks *KeySheet) {
	if len(c.Rotors) == 0 && len(ks.Rotors) > 0 {
		c.Rotors = make([]string, len(ks.Rotors))
		for i, r := range ks.Rotors {
			c.Rotors[i] = strings.ToUpper(strings.TrimSpace(r))
		}
	}
	if len(c.Positions) == 0 {
		c.Positions = append([]int(nil), ks.Positions...)
	}
	if len(c.Rings) == 0 {
		c.Rings = append([]int(nil), ks.Rings...)
	}
	if c.Reflector == "" {
		c.Reflector = strings.ToUpper(strings.TrimSpace(ks.Reflector))
	}
	if c.Plugboard == "" {
		c.Plugboard = ks.Plugboard
	}

	if len(ks.CustomRotors) > 0 && c.customRotors == nil {
		c.customRotors = make(map[string]RotorDef)
	}
	for _, d := range ks.CustomRotors {
		c.customRotors[strings.ToUpper(d.Name)] = d
	}
	if len(ks.CustomReflectors) > 0 && c.customReflectors == nil {
		c.customReflectors = make(map[string]ReflectorDef)
	}
	for _, d := range ks.CustomReflectors {
		c.customReflectors[strings.ToUpper(d.Name)] = d
	}
}
