// Package coordinator implements SPEC_FULL.md §4.J Window Coordinator: the
// tab list, focus, and the per-frame sequence that drains PTY output into the
// active tab's grid, syncs the renderer, drains the focused tab's script
// events, renders, and finally applies post-render actions with the
// renderer's mutable borrow released. RunFrame does not poll chat or tmux
// queues and applies no permission gate itself; GateScriptCommand is the
// separate permission check for script commands.
//
// Grounded on the teacher's internal/app/app_msgpump.go critical/non-critical
// external-message pump: a bounded critical channel for errors and PTY-death
// notifications that must never be silently dropped, and a best-effort
// channel for everything else, with oldest-message eviction under pressure.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/paulrobello/par-term-sub012/internal/chat"
	"github.com/paulrobello/par-term-sub012/internal/perf"
	"github.com/paulrobello/par-term-sub012/internal/safego"
	"github.com/paulrobello/par-term-sub012/internal/scripting"
	"github.com/paulrobello/par-term-sub012/internal/supervisor"
	"github.com/paulrobello/par-term-sub012/internal/tmuxctl"
)

const (
	criticalQueueSize    = 32
	nonCriticalQueueSize = 256
)

// ExternalMsg is anything the coordinator can route to the UI thread.
type ExternalMsg interface{}

// ErrorMsg reports a background failure. Always delivered.
type ErrorMsg struct {
	Err     error
	Context string
}

// PTYStoppedMsg reports a tab's PTY child exiting. Always delivered so the
// coordinator can retire or refresh the tab.
type PTYStoppedMsg struct {
	TabID    string
	ExitCode int
}

// ChatUpdateMsg carries a chat session update for a tab, best-effort.
type ChatUpdateMsg struct {
	TabID  string
	Update chat.SessionUpdate
}

func isCritical(msg ExternalMsg) bool {
	switch msg.(type) {
	case ErrorMsg, PTYStoppedMsg:
		return true
	default:
		return false
	}
}

// Tab is one terminal tab: its chat state, script event forwarder, and tmux
// prefix-key state machine. The PTY/grid themselves are external
// collaborators (see SPEC_FULL.md §0) and are referenced here only by ID.
type Tab struct {
	ID          string
	Title       string
	Chat        *chat.State
	Scripts     *scripting.ScriptEventForwarder
	TmuxPrefix  tmuxctl.State
	FocusedPane *tmuxctl.PaneID
}

// NewTab creates a tab with fresh chat and script-forwarder state.
func NewTab(id, title string, scriptSubscriptions map[string]struct{}) *Tab {
	return &Tab{
		ID:      id,
		Title:   title,
		Chat:    chat.New(),
		Scripts: scripting.NewScriptEventForwarder(scriptSubscriptions),
	}
}

// PostRenderActionKind enumerates the one-shot UI actions that must run
// after the renderer's mutable borrow is released (SPEC_FULL.md §4.J step 5).
type PostRenderActionKind int

const (
	ActionNone PostRenderActionKind = iota
	ActionOpenProfileSelector
	ActionResolvePermissionPrompt
	ActionInstallShader
	ActionSwapTheme
)

// PostRenderAction is a deferred side effect queued during bus polling and
// drained after the frame's render call returns.
type PostRenderAction struct {
	Kind        PostRenderActionKind
	TabID       string
	ShaderPath  string
	ThemeName   string
	Description string
}

// KeyRoutingTarget is the destination of a keyboard event under the
// coordinator's routing precedence.
type KeyRoutingTarget int

const (
	RouteClipboardHistory KeyRoutingTarget = iota
	RouteSettingsWindow
	RouteActivePane
)

// RouteKeyEvent applies the fixed precedence: clipboard-history overlay,
// then the settings window, then the focused split pane.
func RouteKeyEvent(clipboardHistoryOpen, settingsWindowOpen bool) KeyRoutingTarget {
	switch {
	case clipboardHistoryOpen:
		return RouteClipboardHistory
	case settingsWindowOpen:
		return RouteSettingsWindow
	default:
		return RouteActivePane
	}
}

// Coordinator owns the tab list, focus, and the external-message pump that
// feeds the UI thread. It never holds two component locks at once; all
// cross-component updates flow through the critical/non-critical channels.
type Coordinator struct {
	mu    sync.Mutex
	tabs  []*Tab
	focus int

	externalCritical chan ExternalMsg
	externalMsgs     chan ExternalMsg
	externalSender   func(ExternalMsg)
	externalOnce     sync.Once

	supervisor *supervisor.Supervisor

	pendingActions []PostRenderAction
	actionsMu      sync.Mutex
}

// New creates a Coordinator backed by the given supervisor (may be nil, in
// which case the pump runs as a plain safego goroutine).
func New(sup *supervisor.Supervisor) *Coordinator {
	return &Coordinator{
		externalCritical: make(chan ExternalMsg, criticalQueueSize),
		externalMsgs:     make(chan ExternalMsg, nonCriticalQueueSize),
		supervisor:       sup,
	}
}

// AddTab appends a new tab and focuses it.
func (c *Coordinator) AddTab(t *Tab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabs = append(c.tabs, t)
	c.focus = len(c.tabs) - 1
}

// CloseTab removes the tab with the given ID, adjusting focus if needed.
func (c *Coordinator) CloseTab(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.tabs {
		if t.ID == id {
			c.tabs = append(c.tabs[:i], c.tabs[i+1:]...)
			if c.focus >= len(c.tabs) {
				c.focus = len(c.tabs) - 1
			}
			return
		}
	}
}

// PollBackgroundTabs drains queued script events for every tab other than
// the focused one, concurrently, and hands each tab's batch to onEvents. The
// focused tab is excluded: its bus is drained synchronously as part of
// RunFrame's ordered sequence. Unlike the focused tab's pipeline, background
// tabs touch only their own independent state, so draining them concurrently
// cannot violate the single-writer/no-two-locks rule.
func (c *Coordinator) PollBackgroundTabs(ctx context.Context, onEvents func(tab *Tab, events []scripting.ScriptEvent)) error {
	focused := c.FocusedTab()
	tabs := c.Tabs()

	g, _ := errgroup.WithContext(ctx)
	for _, t := range tabs {
		if focused != nil && t.ID == focused.ID {
			continue
		}
		t := t
		g.Go(func() error {
			events := t.Scripts.DrainEvents()
			if onEvents != nil {
				onEvents(t, events)
			}
			return nil
		})
	}
	return g.Wait()
}

// FocusedTab returns the currently focused tab, or nil if there are none.
func (c *Coordinator) FocusedTab() *Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.focus < 0 || c.focus >= len(c.tabs) {
		return nil
	}
	return c.tabs[c.focus]
}

// Tabs returns a snapshot of the current tab list.
func (c *Coordinator) Tabs() []*Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Tab, len(c.tabs))
	copy(out, c.tabs)
	return out
}

// SetFocus focuses the tab at the given index, clamped to the valid range.
func (c *Coordinator) SetFocus(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tabs) == 0 {
		c.focus = 0
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.tabs) {
		idx = len(c.tabs) - 1
	}
	c.focus = idx
}

// SetMsgSender installs the function the pump uses to deliver messages to
// the UI thread and starts the pump goroutine. Idempotent.
func (c *Coordinator) SetMsgSender(send func(ExternalMsg)) {
	if send == nil {
		return
	}
	c.externalOnce.Do(func() {
		c.externalSender = send
		c.installSupervisorErrorHandler()
		if c.supervisor != nil {
			c.supervisor.Start("coordinator.external_msgs", c.runExternalMsgs)
			return
		}
		safego.Go("coordinator.external_msgs", func() {
			_ = c.runExternalMsgs(context.Background())
		})
	})
}

// EnqueueExternalMsg delivers msg to the UI thread via the pump, using the
// critical channel for errors/PTY-death and the best-effort channel
// otherwise. Under backpressure, a critical message evicts the oldest
// non-critical message before falling back to dropping itself.
func (c *Coordinator) EnqueueExternalMsg(msg ExternalMsg) {
	if msg == nil {
		return
	}
	if isCritical(msg) {
		select {
		case c.externalCritical <- msg:
			return
		default:
			select {
			case <-c.externalMsgs:
				perf.Count("external_msg_drop_noncritical", 1)
			default:
			}
			select {
			case c.externalCritical <- msg:
				return
			default:
				perf.Count("external_msg_drop_critical", 1)
				return
			}
		}
	}
	select {
	case c.externalMsgs <- msg:
	default:
		perf.Count("external_msg_drop", 1)
	}
}

func (c *Coordinator) runExternalMsgs(ctx context.Context) error {
	for {
		select {
		case msg, ok := <-c.externalCritical:
			if !ok {
				return nil
			}
			if msg != nil && c.externalSender != nil {
				c.externalSender(msg)
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-c.externalCritical:
			if !ok {
				return nil
			}
			if msg != nil && c.externalSender != nil {
				c.externalSender(msg)
			}
		case msg, ok := <-c.externalMsgs:
			if !ok {
				return nil
			}
			if msg != nil && c.externalSender != nil {
				c.externalSender(msg)
			}
		}
	}
}

func (c *Coordinator) installSupervisorErrorHandler() {
	if c.supervisor == nil {
		return
	}
	c.supervisor.SetErrorHandler(func(name string, err error) {
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.EnqueueExternalMsg(ErrorMsg{
			Err:     fmt.Errorf("worker %s: %w", name, err),
			Context: "worker",
		})
	})
}

// QueuePostRenderAction defers a one-shot UI action until after the current
// frame's render call returns and the renderer borrow is released.
func (c *Coordinator) QueuePostRenderAction(a PostRenderAction) {
	c.actionsMu.Lock()
	c.pendingActions = append(c.pendingActions, a)
	c.actionsMu.Unlock()
}

// DrainPostRenderActions returns and clears the queued post-render actions.
func (c *Coordinator) DrainPostRenderActions() []PostRenderAction {
	c.actionsMu.Lock()
	defer c.actionsMu.Unlock()
	if len(c.pendingActions) == 0 {
		return nil
	}
	out := c.pendingActions
	c.pendingActions = nil
	return out
}

// FramePlan captures the callbacks a caller supplies for one coordinator
// frame (SPEC_FULL.md §4.J steps 1-5). Each is optional; a nil callback
// skips that step.
type FramePlan struct {
	DrainPTY     func(tab *Tab) error
	SyncRenderer func(tab *Tab) error
	PollScripts  func(tab *Tab, events []scripting.ScriptEvent)
	Render       func() error
	ApplyActions func(actions []PostRenderAction)
}

// RunFrame executes one coordinator frame against the focused tab, following
// the fixed step order: drain PTY, sync renderer, drain the tab's script
// events and hand them to PollScripts as they are (no permission or
// rate-limit gate is applied in this step), render, then post-render
// actions.
func (c *Coordinator) RunFrame(plan FramePlan) error {
	tab := c.FocusedTab()
	if tab == nil {
		if plan.Render != nil {
			return plan.Render()
		}
		return nil
	}

	if plan.DrainPTY != nil {
		if err := plan.DrainPTY(tab); err != nil {
			return fmt.Errorf("drain pty: %w", err)
		}
	}
	if plan.SyncRenderer != nil {
		if err := plan.SyncRenderer(tab); err != nil {
			return fmt.Errorf("sync renderer: %w", err)
		}
	}
	if plan.PollScripts != nil {
		events := tab.Scripts.DrainEvents()
		plan.PollScripts(tab, events)
	}

	if plan.Render != nil {
		if err := plan.Render(); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	actions := c.DrainPostRenderActions()
	if len(actions) > 0 && plan.ApplyActions != nil {
		plan.ApplyActions(actions)
	}
	return nil
}

// GateScriptCommand decides whether a script command may be applied
// immediately or must be queued as a permission prompt first. It never
// itself executes the command; callers apply the side effect only after this
// returns allow=true (either because no permission is required, or because
// the caller has already recorded consent for this session).
func GateScriptCommand(cmd scripting.ScriptCommand, alreadyGranted bool) (allow bool, flagName string) {
	if !cmd.RequiresPermission() {
		return true, ""
	}
	if alreadyGranted {
		return true, cmd.PermissionFlagName()
	}
	return false, cmd.PermissionFlagName()
}
