package layout

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a duration string ("10m") or integer milliseconds.
type Duration time.Duration

func parseDuration(raw string) (Duration, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return Duration(time.Duration(ms) * time.Millisecond), nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(ErrConfiguration, "duration %q", raw)
	}

	return Duration(parsed), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Wrapf(ErrConfiguration, "duration at line %d must be a scalar", value.Line)
	}

	parsed, err := parseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = parsed

	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrConfiguration, err.Error())
	}

	switch val := raw.(type) {
	case float64:
		*d = Duration(time.Duration(val * float64(time.Millisecond)))
	case string:
		parsed, err := parseDuration(val)
		if err != nil {
			return err
		}
		*d = parsed
	case nil:
		*d = 0
	default:
		return errors.Wrapf(ErrConfiguration, "duration %s", data)
	}

	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration().String(), nil
}

// MarshalJSON writes the duration as integer milliseconds.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(d.Duration().Milliseconds(), 10)), nil
}

// Duration returns the standard time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }
