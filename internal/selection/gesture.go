package selection

import (
	"fmt"

	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
)

// Modifier is the selection behaviour chosen by held keys.
type Modifier int

const (
	ModifierNone   Modifier = iota
	ModifierAdd             // Shift or Meta
	ModifierToggle          // Ctrl
)

// ModifierFromKeys maps held keys to a Modifier. Ctrl wins over Shift/Meta.
func ModifierFromKeys(shift, meta, ctrl bool) Modifier {
	switch {
	case ctrl:
		return ModifierToggle
	case shift || meta:
		return ModifierAdd
	}
	return ModifierNone
}

// ParseModifier accepts "", "none", "add" and "toggle".
func ParseModifier(s string) (Modifier, error) {
	switch s {
	case "", "none":
		return ModifierNone, nil
	case "add":
		return ModifierAdd, nil
	case "toggle":
		return ModifierToggle, nil
	}
	return ModifierNone, fmt.Errorf("unknown selection modifier %q", s)
}

// MouseDown resolves a press on item. Items that are already selected are
// left alone so a drag can start without collapsing a multi-selection;
// toggling is decided here and only here.
func MouseDown(s Selection, item graph.Ref, mod Modifier) Selection {
	switch mod {
	case ModifierToggle:
		return s.Toggle(item)
	case ModifierAdd:
		return s.Add(item)
	default:
		if s.Contains(item) {
			return s
		}
		return SetUnique(item)
	}
}

// MouseUp resolves a release on item after a press without a drag. A plain
// release collapses the selection to item; under the toggle modifier it does
// nothing because MouseDown already toggled.
func MouseUp(s Selection, item graph.Ref, mod Modifier) Selection {
	switch mod {
	case ModifierToggle:
		return s
	case ModifierAdd:
		return s.Add(item)
	default:
		if s.Len() == 1 && s.Contains(item) {
			return s
		}
		return SetUnique(item)
	}
}
