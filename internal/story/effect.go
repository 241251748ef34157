package story

import (
	"fmt"
	"strconv"
	"strings"
)

// EffectMode distinguishes absolute assignment from signed deltas.
type EffectMode int

const (
	// EffectSet assigns the amount, replacing the previous value.
	EffectSet EffectMode = iota

	// EffectAdd adds the amount to the previous value.
	EffectAdd

	// EffectSub subtracts the amount from the previous value.
	EffectSub
)

// Effect is the parsed form of a scene-attached attribute mutation,
// applied to the player when the scene is entered.
type Effect struct {
	Key    string
	Mode   EffectMode
	Amount int
}

// ParseEffect parses a raw effect payload for the given attribute key.
// "+N" adds, "-N" subtracts, a bare integer assigns. A payload that is
// not an integer after stripping the sign is an error; the engine
// skips the single offending key and applies the rest.
func ParseEffect(key, raw string) (Effect, error) {
	raw = strings.TrimSpace(raw)
	mode := EffectSet
	payload := raw
	switch {
	case strings.HasPrefix(raw, "+"):
		mode = EffectAdd
		payload = raw[1:]
	case strings.HasPrefix(raw, "-"):
		mode = EffectSub
		payload = raw[1:]
	}
	amount, err := strconv.Atoi(payload)
	if err != nil {
		return Effect{}, fmt.Errorf("effect %q=%q: payload is not an integer", key, raw)
	}
	return Effect{Key: key, Mode: mode, Amount: amount}, nil
}

// Apply computes the new attribute value given the previous one.
// There is no clamping; the health termination rule is the engine's.
func (e Effect) Apply(previous int) int {
	switch e.Mode {
	case EffectAdd:
		return previous + e.Amount
	case EffectSub:
		return previous - e.Amount
	default:
		return e.Amount
	}
}

func (e Effect) String() string {
	switch e.Mode {
	case EffectAdd:
		return fmt.Sprintf("%s+=%d", e.Key, e.Amount)
	case EffectSub:
		return fmt.Sprintf("%s-=%d", e.Key, e.Amount)
	default:
		return fmt.Sprintf("%s=%d", e.Key, e.Amount)
	}
}
