package scripting

import (
	"fmt"
	"sync"
)

// TerminalEventKind enumerates the terminal-core event kinds the observer
// bridge can receive, mirroring the core library's TerminalEvent variants.
type TerminalEventKind int

const (
	EventBellRang TerminalEventKind = iota
	EventTitleChanged
	EventSizeChanged
	EventModeChanged
	EventGraphicsAdded
	EventHyperlinkAdded
	EventDirtyRegion
	EventCwdChanged
	EventTriggerMatched
	EventUserVarChanged
	EventProgressBarChanged
	EventBadgeChanged
	EventShellIntegration
	EventZoneOpened
	EventZoneClosed
	EventZoneScrolledOut
	EventEnvironmentChanged
	EventRemoteHostTransition
	EventSubShellDetected
	EventFileTransferStarted
	EventFileTransferProgress
	EventFileTransferCompleted
	EventFileTransferFailed
	EventUploadRequested
)

var eventKindNames = map[TerminalEventKind]string{
	EventBellRang:              "bell_rang",
	EventTitleChanged:          "title_changed",
	EventSizeChanged:           "size_changed",
	EventModeChanged:           "mode_changed",
	EventGraphicsAdded:         "graphics_added",
	EventHyperlinkAdded:        "hyperlink_added",
	EventDirtyRegion:           "dirty_region",
	EventCwdChanged:            "cwd_changed",
	EventTriggerMatched:        "trigger_matched",
	EventUserVarChanged:        "user_var_changed",
	EventProgressBarChanged:    "progress_bar_changed",
	EventBadgeChanged:          "badge_changed",
	EventShellIntegration:      "command_complete",
	EventZoneOpened:            "zone_opened",
	EventZoneClosed:            "zone_closed",
	EventZoneScrolledOut:       "zone_scrolled_out",
	EventEnvironmentChanged:    "environment_changed",
	EventRemoteHostTransition:  "remote_host_transition",
	EventSubShellDetected:      "sub_shell_detected",
	EventFileTransferStarted:   "file_transfer_started",
	EventFileTransferProgress:  "file_transfer_progress",
	EventFileTransferCompleted: "file_transfer_completed",
	EventFileTransferFailed:    "file_transfer_failed",
	EventUploadRequested:       "upload_requested",
}

// EventKindName maps a TerminalEventKind to its snake_case protocol name.
func EventKindName(k TerminalEventKind) string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// TerminalEvent is a core terminal event as delivered to the observer.
// Only the fields relevant to Kind are populated; unused fields stay
// zero, mirroring the original's per-variant payload structs.
type TerminalEvent struct {
	Kind TerminalEventKind

	Title       string
	Cols, Rows  int
	Cwd         string
	Name        string
	Value       string
	OldValue    *string
	Key         string
	BadgeText   *string
	Command     string
	ExitCode    *int
	TriggerID   string
	MatchedText string
	Line        int
	ZoneID      uint64
	ZoneType    string
	ZoneAction  string // "opened" | "closed" | "scrolled_out"

	// Debug carries a human-readable fallback payload for event kinds
	// with no dedicated ScriptEventData variant.
	Debug string
}

// ScriptEventForwarder bridges core terminal events into the scripting
// JSON protocol. Register it with the terminal's observer list; the
// owner drains buffered events via DrainEvents and serializes them to
// script subprocesses.
//
// event_buffer uses a plain Mutex in the original because observer
// callbacks run on the PTY reader thread; the same reasoning applies
// here; OnEvent may be called concurrently with DrainEvents.
type ScriptEventForwarder struct {
	subscriptionFilter map[string]struct{} // nil means "forward everything"

	mu    sync.Mutex
	buf   []ScriptEvent
}

// NewScriptEventForwarder creates a forwarder. If subscriptions is
// non-nil, only events whose snake_case kind name appears in it are
// captured; nil captures everything.
func NewScriptEventForwarder(subscriptions map[string]struct{}) *ScriptEventForwarder {
	return &ScriptEventForwarder{subscriptionFilter: subscriptions}
}

// DrainEvents returns all buffered events and clears the buffer.
func (f *ScriptEventForwarder) DrainEvents() []ScriptEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.buf
	f.buf = nil
	return out
}

// OnEvent applies the subscription filter and, if the event passes,
// converts and buffers it. Safe to call concurrently with DrainEvents.
func (f *ScriptEventForwarder) OnEvent(event TerminalEvent) {
	kind := EventKindName(event.Kind)
	if f.subscriptionFilter != nil {
		if _, ok := f.subscriptionFilter[kind]; !ok {
			return
		}
	}

	se := convertEvent(event)
	f.mu.Lock()
	f.buf = append(f.buf, se)
	f.mu.Unlock()
}

func convertEvent(event TerminalEvent) ScriptEvent {
	kind := EventKindName(event.Kind)

	var data ScriptEventData
	switch event.Kind {
	case EventBellRang:
		data = emptyData()
	case EventTitleChanged:
		data = ScriptEventData{DataType: "TitleChanged", Title: event.Title}
	case EventSizeChanged:
		data = ScriptEventData{DataType: "SizeChanged", Cols: event.Cols, Rows: event.Rows}
	case EventCwdChanged:
		data = ScriptEventData{DataType: "CwdChanged", Cwd: event.Cwd}
	case EventUserVarChanged:
		data = ScriptEventData{DataType: "VariableChanged", Name: event.Name, Value: event.Value, OldValue: event.OldValue}
	case EventEnvironmentChanged:
		data = ScriptEventData{DataType: "EnvironmentChanged", Key: event.Key, Value: event.Value, OldValue: event.OldValue}
	case EventBadgeChanged:
		var text *string
		if event.BadgeText != nil {
			text = event.BadgeText
		}
		data = ScriptEventData{DataType: "BadgeChanged", Text: text}
	case EventShellIntegration:
		data = ScriptEventData{DataType: "CommandComplete", Command: event.Command, ExitCode: event.ExitCode}
	case EventTriggerMatched:
		data = ScriptEventData{
			DataType:    "TriggerMatched",
			Pattern:     fmt.Sprintf("trigger:%s", event.TriggerID),
			MatchedText: event.MatchedText,
			Line:        event.Line,
		}
	case EventZoneOpened:
		data = ScriptEventData{DataType: "ZoneEvent", ZoneID: event.ZoneID, ZoneType: event.ZoneType, Event: "opened"}
	case EventZoneClosed:
		data = ScriptEventData{DataType: "ZoneEvent", ZoneID: event.ZoneID, ZoneType: event.ZoneType, Event: "closed"}
	case EventZoneScrolledOut:
		data = ScriptEventData{DataType: "ZoneEvent", ZoneID: event.ZoneID, ZoneType: event.ZoneType, Event: "scrolled_out"}
	default:
		debug := event.Debug
		if debug == "" {
			debug = kind
		}
		data = ScriptEventData{DataType: "Generic", Fields: map[string]any{"debug": debug}}
	}

	return ScriptEvent{Kind: kind, Data: data}
}
