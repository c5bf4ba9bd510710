package scripting

import "testing"

func TestEventKindNameBell(t *testing.T) {
	if got := EventKindName(EventBellRang); got != "bell_rang" {
		t.Fatalf("got %q", got)
	}
}

func TestConvertBellEvent(t *testing.T) {
	se := convertEvent(TerminalEvent{Kind: EventBellRang})
	if se.Kind != "bell_rang" || se.Data.DataType != "Empty" {
		t.Fatalf("unexpected conversion: %+v", se)
	}
}

func TestConvertTitleEvent(t *testing.T) {
	se := convertEvent(TerminalEvent{Kind: EventTitleChanged, Title: "My Title"})
	if se.Kind != "title_changed" || se.Data.Title != "My Title" {
		t.Fatalf("unexpected conversion: %+v", se)
	}
}

func TestConvertSizeEvent(t *testing.T) {
	se := convertEvent(TerminalEvent{Kind: EventSizeChanged, Cols: 120, Rows: 40})
	if se.Data.Cols != 120 || se.Data.Rows != 40 {
		t.Fatalf("unexpected conversion: %+v", se)
	}
}

func TestForwarderNoFilterCapturesAll(t *testing.T) {
	f := NewScriptEventForwarder(nil)
	f.OnEvent(TerminalEvent{Kind: EventBellRang})
	f.OnEvent(TerminalEvent{Kind: EventTitleChanged, Title: "t"})

	events := f.DrainEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != "bell_rang" || events[1].Kind != "title_changed" {
		t.Fatalf("unexpected event order: %+v", events)
	}
}

func TestForwarderFiltersBySubscription(t *testing.T) {
	f := NewScriptEventForwarder(map[string]struct{}{"bell_rang": {}})
	f.OnEvent(TerminalEvent{Kind: EventBellRang})
	f.OnEvent(TerminalEvent{Kind: EventTitleChanged, Title: "t"})

	events := f.DrainEvents()
	if len(events) != 1 || events[0].Kind != "bell_rang" {
		t.Fatalf("expected only bell_rang to pass filter, got %+v", events)
	}
}

func TestDrainClearsBuffer(t *testing.T) {
	f := NewScriptEventForwarder(nil)
	f.OnEvent(TerminalEvent{Kind: EventBellRang})

	if len(f.DrainEvents()) != 1 {
		t.Fatal("expected first drain to return buffered event")
	}
	if len(f.DrainEvents()) != 0 {
		t.Fatal("expected second drain to be empty")
	}
}

func TestCommandPermissionClassification(t *testing.T) {
	cases := []struct {
		cmd        ScriptCommand
		permission bool
		rateLimit  bool
		flag       string
	}{
		{ScriptCommand{Type: CmdLog}, false, false, ""},
		{ScriptCommand{Type: CmdWriteText}, true, true, "allow_write_text"},
		{ScriptCommand{Type: CmdRunCommand}, true, true, "allow_run_command"},
		{ScriptCommand{Type: CmdChangeConfig}, true, false, "allow_change_config"},
		{ScriptCommand{Type: CmdNotify}, false, false, ""},
	}
	for _, c := range cases {
		if got := c.cmd.RequiresPermission(); got != c.permission {
			t.Errorf("%s: RequiresPermission() = %v, want %v", c.cmd.Type, got, c.permission)
		}
		if got := c.cmd.IsRateLimited(); got != c.rateLimit {
			t.Errorf("%s: IsRateLimited() = %v, want %v", c.cmd.Type, got, c.rateLimit)
		}
		if got := c.cmd.PermissionFlagName(); got != c.flag {
			t.Errorf("%s: PermissionFlagName() = %q, want %q", c.cmd.Type, got, c.flag)
		}
	}
}

func TestTokenizeCommandRespectsDoubleQuotes(t *testing.T) {
	program, args, ok := TokenizeCommand(`git commit -m "fix: a bug"`)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if program != "git" {
		t.Fatalf("unexpected program: %q", program)
	}
	want := []string{"commit", "-m", "fix: a bug"}
	if len(args) != len(want) {
		t.Fatalf("unexpected args: %+v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestTokenizeCommandEmptyReturnsNotOK(t *testing.T) {
	if _, _, ok := TokenizeCommand("   "); ok {
		t.Fatal("expected ok=false for whitespace-only command")
	}
}

func TestApplyConfigChangeClampsFontSize(t *testing.T) {
	change, err := ApplyConfigChange("font_size", []byte("500"))
	if err != nil {
		t.Fatal(err)
	}
	if change.Float != 72.0 {
		t.Fatalf("expected clamp to 72.0, got %v", change.Float)
	}
}

func TestApplyConfigChangeRejectsUnknownKey(t *testing.T) {
	_, err := ApplyConfigChange("shell_command", []byte(`"rm -rf /"`))
	if err == nil {
		t.Fatal("expected unknown-key rejection")
	}
}

func TestApplyConfigChangeClampsOpacity(t *testing.T) {
	change, err := ApplyConfigChange("window_opacity", []byte("-1"))
	if err != nil {
		t.Fatal(err)
	}
	if change.Float != 0.0 {
		t.Fatalf("expected clamp to 0.0, got %v", change.Float)
	}
}
