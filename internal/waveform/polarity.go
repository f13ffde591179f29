package waveform

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Polarity selects which side of the signal carries spike peaks.
type Polarity int

const (
	// Negative treats downward deflections as peaks. This is the common
	// case for extracellular recordings.
	Negative Polarity = -1
	// Both rectifies the signal so deflections on either side count.
	Both Polarity = 0
	// Positive treats upward deflections as peaks.
	Positive Polarity = 1
)

func (p Polarity) String() string {
	switch p {
	case Negative:
		return "negative"
	case Positive:
		return "positive"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("Polarity(%d)", int(p))
	}
}

// ParsePolarity converts a configuration string to a Polarity.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "negative", "neg":
		return Negative, nil
	case "positive", "pos":
		return Positive, nil
	case "both":
		return Both, nil
	}
	return 0, fmt.Errorf("unknown polarity %q", s)
}

// MarshalYAML renders the polarity as its configuration string.
func (p Polarity) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// UnmarshalYAML parses the configuration string form.
func (p *Polarity) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePolarity(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
