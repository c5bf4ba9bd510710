// Package chat implements SPEC_FULL.md §4.F Agent Chat State Machine: the
// conversation history, streaming-text buffer, and replay-prompt builder
// for an RPC-driven agent session.
//
// Grounded on original_source/src/ai_inspector/chat/state.rs and the
// SessionUpdate variants in original_source/par-term-acp/src/protocol/session.rs.
package chat

import (
	"strings"
	"unicode/utf8"
)

// UpdateKind discriminates a SessionUpdate the same way the original's
// "sessionUpdate" JSON field does.
type UpdateKind int

const (
	AgentMessageChunk UpdateKind = iota
	AgentThoughtChunk
	UserMessageChunk
	ToolCall
	ToolCallUpdate
	Plan
	AvailableCommandsUpdate
	CurrentModeUpdate
	Unknown
)

// ToolCallInfo mirrors par-term-acp's ToolCallInfo.
type ToolCallInfo struct {
	ToolCallID string
	Title      string
	Kind       string
	Status     string
}

// ToolCallUpdateInfo mirrors par-term-acp's ToolCallUpdateInfo. A nil
// pointer field means "unchanged".
type ToolCallUpdateInfo struct {
	ToolCallID string
	Status     *string
	Title      *string
}

// SessionUpdate is a parsed session/update notification.
type SessionUpdate struct {
	Kind         UpdateKind
	Text         string // AgentMessageChunk / AgentThoughtChunk / UserMessageChunk
	ToolCall     ToolCallInfo
	ToolCallUpd  ToolCallUpdateInfo
}

// MessageKind discriminates the ChatMessage union.
type MessageKind int

const (
	MsgUser MessageKind = iota
	MsgAgent
	MsgSystem
	MsgThinking
	MsgToolCall
	MsgPermission
	MsgCommandSuggestion
	MsgAutoApproved
)

// Message is one entry in the chat transcript. Fields unused by Kind are
// zero.
type Message struct {
	Kind MessageKind

	Text string // User, Agent, System, Thinking, CommandSuggestion, AutoApproved

	Pending bool // User only: queued/not-yet-sent

	ToolCallID string // ToolCall, Permission
	Title      string // ToolCall
	ToolKind   string // ToolCall
	Status     string // ToolCall

	PermissionDescription string // Permission
	PermissionResolved    bool   // Permission
}

const (
	maxEntries    = 24
	maxTotalChars = 16000
	maxEntryChars = 1200
)

const replayPreamble = "[System: par-term context restore]\n" +
	"The following is a best-effort transcript reconstructed from the local UI chat " +
	"history after reconnecting or switching agent/provider. It preserves visible " +
	"conversation context only (not hidden session state, pending permissions, or " +
	"tool-call IDs). Use it to continue the conversation naturally from the latest " +
	"user request. Do not restate the transcript unless asked.\n\n"

// State holds the conversation history, input buffer, and streaming
// assembly buffer for one agent session.
type State struct {
	Messages  []Message
	Input     string
	Streaming bool

	agentTextBuffer strings.Builder
}

// New returns an empty chat state.
func New() *State {
	return &State{}
}

// HandleUpdate processes an incoming SessionUpdate, updating Messages and
// Streaming. Non-chunk updates flush any buffered agent text first so a
// complete message is recorded before tool calls or other events.
func (s *State) HandleUpdate(u SessionUpdate) {
	switch u.Kind {
	case AgentMessageChunk:
		s.agentTextBuffer.WriteString(u.Text)
		s.Streaming = true
	case AgentThoughtChunk:
		if n := len(s.Messages); n > 0 && s.Messages[n-1].Kind == MsgThinking {
			s.Messages[n-1].Text += u.Text
		} else {
			s.Messages = append(s.Messages, Message{Kind: MsgThinking, Text: u.Text})
		}
	case ToolCall:
		s.FlushAgentMessage()
		s.Messages = append(s.Messages, Message{
			Kind:       MsgToolCall,
			ToolCallID: u.ToolCall.ToolCallID,
			Title:      u.ToolCall.Title,
			ToolKind:   u.ToolCall.Kind,
			Status:     u.ToolCall.Status,
		})
	case ToolCallUpdate:
		for i := len(s.Messages) - 1; i >= 0; i-- {
			m := &s.Messages[i]
			if m.Kind != MsgToolCall || m.ToolCallID != u.ToolCallUpd.ToolCallID {
				continue
			}
			if u.ToolCallUpd.Status != nil {
				m.Status = *u.ToolCallUpd.Status
			}
			if u.ToolCallUpd.Title != nil {
				m.Title = *u.ToolCallUpd.Title
			}
			break
		}
	default:
		s.FlushAgentMessage()
	}
}

// FlushAgentMessage moves the buffered agent text into a completed Agent
// message, extracting fenced bash/sh code blocks into CommandSuggestion
// entries, and clears Streaming.
func (s *State) FlushAgentMessage() {
	if s.agentTextBuffer.Len() > 0 {
		text := s.agentTextBuffer.String()
		s.agentTextBuffer.Reset()
		trimmed := strings.TrimRight(text, " \t\n\r")

		commands := ExtractCodeBlockCommands(trimmed)

		s.Messages = append(s.Messages, Message{Kind: MsgAgent, Text: trimmed})
		for _, cmd := range commands {
			s.Messages = append(s.Messages, Message{Kind: MsgCommandSuggestion, Text: cmd})
		}
	}
	s.Streaming = false
}

// StreamingText returns the current in-progress streaming text, not yet
// flushed into a Message.
func (s *State) StreamingText() string { return s.agentTextBuffer.String() }

// AddUserMessage flushes any pending agent text, then appends a pending
// (not-yet-sent) user message.
func (s *State) AddUserMessage(text string) {
	s.FlushAgentMessage()
	s.Messages = append(s.Messages, Message{Kind: MsgUser, Text: text, Pending: true})
}

// MarkOldestPendingSent clears Pending on the first pending user message.
func (s *State) MarkOldestPendingSent() {
	for i := range s.Messages {
		if s.Messages[i].Kind == MsgUser && s.Messages[i].Pending {
			s.Messages[i].Pending = false
			return
		}
	}
}

// CancelLastPending removes the most recent pending user message,
// reporting whether one was found.
func (s *State) CancelLastPending() bool {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Kind == MsgUser && s.Messages[i].Pending {
			s.Messages = append(s.Messages[:i], s.Messages[i+1:]...)
			return true
		}
	}
	return false
}

// AddSystemMessage appends a system message.
func (s *State) AddSystemMessage(text string) {
	s.Messages = append(s.Messages, Message{Kind: MsgSystem, Text: text})
}

// AddCommandSuggestion appends a standalone command suggestion.
func (s *State) AddCommandSuggestion(command string) {
	s.Messages = append(s.Messages, Message{Kind: MsgCommandSuggestion, Text: command})
}

// AddAutoApproved appends an auto-approved tool-call notice.
func (s *State) AddAutoApproved(description string) {
	s.Messages = append(s.Messages, Message{Kind: MsgAutoApproved, Text: description})
}

// Clear resets the transcript, streaming buffer, and streaming flag.
func (s *State) Clear() {
	s.Messages = nil
	s.agentTextBuffer.Reset()
	s.Streaming = false
}

// BuildContextReplayPrompt builds a bounded transcript prompt used to
// restore local chat context into a newly connected agent session. It is
// best-effort: it preserves visible UI context only, never the agent's
// internal session state or permission-request identifiers. Returns ""
// (ok=false) when there is nothing to replay.
func (s *State) BuildContextReplayPrompt() (string, bool) {
	var entries []string

	for _, m := range s.Messages {
		switch m.Kind {
		case MsgUser:
			if m.Pending {
				continue // the new session never saw queued/unsent prompts
			}
			entries = append(entries, "[User]\n"+truncateReplayText(m.Text, maxEntryChars))
		case MsgAgent:
			entries = append(entries, "[Assistant]\n"+truncateReplayText(m.Text, maxEntryChars))
		case MsgSystem:
			entries = append(entries, "[System]\n"+truncateReplayText(m.Text, maxEntryChars/2))
		case MsgAutoApproved:
			entries = append(entries, "[Tool Auto-Approved]\n"+truncateReplayText(m.Text, maxEntryChars/2))
		case MsgToolCall:
			entries = append(entries, "[Tool Call]\n"+truncateReplayText(m.Title, maxEntryChars/2)+
				" ("+m.ToolKind+") - "+m.Status)
		case MsgPermission:
			state := "unresolved"
			if m.PermissionResolved {
				state = "resolved"
			}
			entries = append(entries, "[Permission Request - "+state+"]\n"+
				truncateReplayText(m.PermissionDescription, maxEntryChars/2))
		case MsgThinking, MsgCommandSuggestion:
			// Internal reasoning and derived suggestions add noise/duplication
			// to the replay transcript; skip them.
		}
	}

	if strings.TrimSpace(s.agentTextBuffer.String()) != "" {
		entries = append(entries, "[Assistant Partial]\n"+truncateReplayText(s.agentTextBuffer.String(), maxEntryChars))
	}

	if len(entries) == 0 {
		return "", false
	}

	var selected []string
	totalChars := 0
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		entryChars := utf8.RuneCountInString(entry)
		if len(selected) > 0 && (len(selected) >= maxEntries || totalChars+entryChars > maxTotalChars) {
			break
		}
		totalChars += entryChars
		selected = append(selected, entry)
	}
	reverseStrings(selected)

	var b strings.Builder
	b.WriteString(replayPreamble)
	if len(selected) < len(entries) {
		b.WriteString("[Older transcript entries omitted for length.]\n\n")
	}
	b.WriteString(strings.Join(selected, "\n\n"))
	return b.String(), true
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// truncateReplayText truncates s to at most maxChars runes, appending an
// ellipsis marker when truncated.
func truncateReplayText(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + "\n[...truncated]"
}
