package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Layout is an ordered step chain.
type Layout struct {
	ID          string       `json:"id"          yaml:"id"`
	Version     string       `json:"version"     yaml:"version"`
	Description string       `json:"description" yaml:"description"`
	Steps       []StepConfig `json:"layout"      yaml:"layout"`
}

// StepConfig is one step as written in a layout file.
type StepConfig struct {
	Name string `json:"name" yaml:"name"`
	// Kind selects the registry entry. Class is accepted as an alias.
	Kind  string `json:"kind"  yaml:"kind"`
	Class string `json:"class" yaml:"class"`
	// Executable is absolute or relative to the component directory.
	Executable   string `json:"executable"   yaml:"executable"`
	Interpreter  string `json:"interpreter"  yaml:"interpreter"`
	ComponentDir string `json:"componentDir" yaml:"componentDir"`

	Timeout       Duration `json:"timeout"       yaml:"timeout"`
	NumErrorLines int      `json:"numErrorLines" yaml:"numErrorLines"`
	GracePeriod   Duration `json:"gracePeriod"   yaml:"gracePeriod"`
}

// KindName returns the registry key of the step.
func (c StepConfig) KindName() string {
	if c.Kind != "" {
		return c.Kind
	}

	return c.Class
}

// Parse decodes a layout. JSON input may hold comments and trailing commas.
func Parse(data []byte, format Format) (*Layout, error) {
	var lay Layout

	switch format {
	case FormatYAML:
		err := yaml.Unmarshal(data, &lay)
		if err != nil {
			return nil, wrapDecode(err, "yaml")
		}
	case FormatJSON:
		err := json.Unmarshal(jsonc.ToJSON(data), &lay)
		if err != nil {
			return nil, wrapDecode(err, "json")
		}
	default:
		return nil, errors.Wrapf(ErrConfiguration, "unknown layout format %q", format)
	}

	return &lay, nil
}

func wrapDecode(err error, format string) error {
	if errors.Is(err, ErrConfiguration) {
		return err
	}

	return errors.Wrapf(ErrConfiguration, "decode %s layout: %v", format, err)
}

// FormatOf guesses the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	default:
		return "", errors.Wrapf(ErrConfiguration, "unknown layout extension for %s", path)
	}
}

// ReadFile reads and parses a layout file.
func ReadFile(path string) (*Layout, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "read layout: %v", err)
	}

	return Parse(data, format)
}
