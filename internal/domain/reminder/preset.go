// internal/domain/reminder/preset.go
package reminder

import (
	"fmt"
)

// Preset is the user's notification schedule choice.
type Preset string

const (
	PresetMorning    Preset = "morning"
	PresetLunch      Preset = "lunch"
	PresetEvening    Preset = "evening"
	PresetThreeTimes Preset = "three_times"
	PresetCustom     Preset = "custom"
	PresetDisabled   Preset = "disabled"
)

// DefaultPreset is assigned to newly registered users.
const DefaultPreset = PresetThreeTimes

// AllPresets lists every preset in the order they are offered to users.
var AllPresets = []Preset{
	PresetMorning,
	PresetLunch,
	PresetEvening,
	PresetThreeTimes,
	PresetCustom,
	PresetDisabled,
}

// ErrUnknownPreset is returned when a stored or received value is not a known preset.
var ErrUnknownPreset = fmt.Errorf("unknown notification preset")

// ParsePreset converts a raw value (callback payload, DB column) into a Preset.
func ParsePreset(raw string) (Preset, error) {
	switch p := Preset(raw); p {
	case PresetMorning, PresetLunch, PresetEvening, PresetThreeTimes, PresetCustom, PresetDisabled:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, raw)
	}
}

// Enabled reports whether the preset implies scheduled reminders.
func (p Preset) Enabled() bool {
	return p != PresetDisabled
}

// PresetTimes returns the fixed times for a preset. Custom and disabled have none;
// custom times come from per-user storage instead.
// A fresh slice is returned on every call so the catalog cannot be mutated.
func PresetTimes(p Preset) []TimeOfDay {
	switch p {
	case PresetMorning:
		return []TimeOfDay{At(7, 30)}
	case PresetLunch:
		return []TimeOfDay{At(12, 30)}
	case PresetEvening:
		return []TimeOfDay{At(19, 0)}
	case PresetThreeTimes:
		return []TimeOfDay{At(7, 30), At(12, 30), At(19, 0)}
	case PresetCustom, PresetDisabled:
		return nil
	default:
		return nil
	}
}
