package scripting

import (
	"encoding/json"
	"fmt"
)

// TokenizeCommand splits a command string into (program, args) without
// invoking a shell. Splits on ASCII whitespace and respects
// double-quoted spans; single quotes and backslash escapes are not
// supported — scripts needing whitespace in an argument must use double
// quotes. Returns ok=false for an empty or all-whitespace command.
//
// Grounded on original_source/src/app/window_manager/scripting/config_change.rs
// tokenise_command; kept shell-free deliberately so RunCommand can never
// be reinterpreted by /bin/sh -c metacharacters.
func TokenizeCommand(command string) (program string, args []string, ok bool) {
	var tokens []string
	var current []rune
	inQuotes := false

	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}

	for _, ch := range command {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case (ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f') && !inQuotes:
			flush()
		default:
			current = append(current, ch)
		}
	}
	flush()

	if len(tokens) == 0 {
		return "", nil, false
	}
	return tokens[0], tokens[1:], true
}

// ConfigChange is an allowlisted, clamped configuration key/value pair
// ready to apply. Build it with ApplyConfigChange, which rejects any key
// not on the runtime allowlist.
type ConfigChange struct {
	Key         string
	Float       float64
	Bool        bool
	Uint        uint64
	IsFloat     bool
	IsBool      bool
	IsUint      bool
}

// ErrUnknownConfigKey is returned for any key outside the allowlist
// below.
var ErrUnknownConfigKey = fmt.Errorf("scripting: config key not in runtime allowlist")

// ApplyConfigChange validates a ChangeConfig command's key/value pair
// against the runtime allowlist, clamping numeric ranges the same way
// the original's apply_script_config_change does. Unknown keys and
// type-mismatched values are rejected rather than silently coerced.
//
//	font_size                 f64  clamped 6-72
//	window_opacity            f64  clamped 0.0-1.0
//	scrollback_lines          u64  unconstrained
//	cursor_blink              bool
//	notification_bell_desktop bool
//	notification_bell_visual  bool
func ApplyConfigChange(key string, value json.RawMessage) (ConfigChange, error) {
	switch key {
	case "font_size":
		v, err := asFloat(value)
		if err != nil {
			return ConfigChange{}, fmt.Errorf("scripting: font_size expected number: %w", err)
		}
		return ConfigChange{Key: key, Float: clamp(v, 6.0, 72.0), IsFloat: true}, nil
	case "window_opacity":
		v, err := asFloat(value)
		if err != nil {
			return ConfigChange{}, fmt.Errorf("scripting: window_opacity expected number: %w", err)
		}
		return ConfigChange{Key: key, Float: clamp(v, 0.0, 1.0), IsFloat: true}, nil
	case "scrollback_lines":
		v, err := asUint(value)
		if err != nil {
			return ConfigChange{}, fmt.Errorf("scripting: scrollback_lines expected integer: %w", err)
		}
		return ConfigChange{Key: key, Uint: v, IsUint: true}, nil
	case "cursor_blink", "notification_bell_desktop", "notification_bell_visual":
		v, err := asBool(value)
		if err != nil {
			return ConfigChange{}, fmt.Errorf("scripting: %s expected bool: %w", key, err)
		}
		return ConfigChange{Key: key, Bool: v, IsBool: true}, nil
	default:
		return ConfigChange{}, fmt.Errorf("%w: %q", ErrUnknownConfigKey, key)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func asFloat(raw json.RawMessage) (float64, error) {
	var v float64
	err := json.Unmarshal(raw, &v)
	return v, err
}

func asUint(raw json.RawMessage) (uint64, error) {
	var v uint64
	err := json.Unmarshal(raw, &v)
	return v, err
}

func asBool(raw json.RawMessage) (bool, error) {
	var v bool
	err := json.Unmarshal(raw, &v)
	return v, err
}
