// Package scripting implements SPEC_FULL.md §4.G Script Observer Bus: the
// JSON event/command protocol spoken with user-configured script
// subprocesses, an observer bridge that buffers terminal events for them,
// and the permission/rate-limit gating and config-change allowlist the
// command dispatcher applies before acting on anything a script sends back.
//
// Grounded on original_source/par-term-scripting/src/protocol.rs (wire
// types and their permission/rate-limit classification) and
// original_source/src/scripting/observer.rs (the observer bridge).
package scripting

import "encoding/json"

// ScriptEvent is sent to a script subprocess's stdin, one JSON object per
// line.
type ScriptEvent struct {
	Kind string          `json:"kind"`
	Data ScriptEventData `json:"data"`
}

// ScriptEventData is the event-specific payload, tagged with "data_type"
// so Python scripts can dispatch on a discriminant field the way the
// original's serde tag does.
type ScriptEventData struct {
	DataType string `json:"data_type"`

	Title      string           `json:"title,omitempty"`
	Cols       int              `json:"cols,omitempty"`
	Rows       int              `json:"rows,omitempty"`
	Cwd        string            `json:"cwd,omitempty"`
	Command    string           `json:"command,omitempty"`
	ExitCode   *int             `json:"exit_code,omitempty"`
	Name       string           `json:"name,omitempty"`
	Value      string           `json:"value,omitempty"`
	OldValue   *string          `json:"old_value,omitempty"`
	Key        string           `json:"key,omitempty"`
	Text       *string          `json:"text,omitempty"`
	Pattern    string           `json:"pattern,omitempty"`
	MatchedText string          `json:"matched_text,omitempty"`
	Line       int              `json:"line,omitempty"`
	ZoneID     uint64           `json:"zone_id,omitempty"`
	ZoneType   string           `json:"zone_type,omitempty"`
	Event      string           `json:"event,omitempty"`
	Fields     map[string]any   `json:"fields,omitempty"`
}

func emptyData() ScriptEventData { return ScriptEventData{DataType: "Empty"} }

// ScriptCommand is received from a script subprocess's stdout, one JSON
// object per line, tagged with "type".
type ScriptCommand struct {
	Type string `json:"type"`

	Text     string          `json:"text,omitempty"`
	Title    string          `json:"title,omitempty"`
	Body     string          `json:"body,omitempty"`
	Name     string          `json:"name,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Command  string          `json:"command,omitempty"`
	Key      string          `json:"key,omitempty"`
	Level    string          `json:"level,omitempty"`
	Message  string          `json:"message,omitempty"`
	Content  string          `json:"content,omitempty"`
}

const (
	CmdWriteText    = "WriteText"
	CmdNotify       = "Notify"
	CmdSetBadge     = "SetBadge"
	CmdSetVariable  = "SetVariable"
	CmdRunCommand   = "RunCommand"
	CmdChangeConfig = "ChangeConfig"
	CmdLog          = "Log"
	CmdSetPanel     = "SetPanel"
	CmdClearPanel   = "ClearPanel"
)

// RequiresPermission reports whether cmd needs its corresponding
// ScriptConfig allow_* flag set before the dispatcher will execute it.
func (c ScriptCommand) RequiresPermission() bool {
	switch c.Type {
	case CmdRunCommand, CmdWriteText, CmdChangeConfig:
		return true
	default:
		return false
	}
}

// PermissionFlagName returns the ScriptConfig field name gating cmd, or
// "" if it requires no permission.
func (c ScriptCommand) PermissionFlagName() string {
	switch c.Type {
	case CmdRunCommand:
		return "allow_run_command"
	case CmdWriteText:
		return "allow_write_text"
	case CmdChangeConfig:
		return "allow_change_config"
	default:
		return ""
	}
}

// IsRateLimited reports whether cmd must be throttled to prevent abuse.
// High-frequency, low-impact commands like Log are exempt so debug
// output is never silently dropped.
func (c ScriptCommand) IsRateLimited() bool {
	switch c.Type {
	case CmdRunCommand, CmdWriteText:
		return true
	default:
		return false
	}
}

// CommandName returns a human-readable name for logging/errors.
func (c ScriptCommand) CommandName() string {
	switch c.Type {
	case CmdWriteText, CmdNotify, CmdSetBadge, CmdSetVariable, CmdRunCommand,
		CmdChangeConfig, CmdLog, CmdSetPanel, CmdClearPanel:
		return c.Type
	default:
		return "Unknown"
	}
}
