package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func submit(t *testing.T, m replModel, input string) (replModel, tea.Cmd) {
	t.Helper()
	m.textInput.SetValue(input)
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after %q", input)
	}
	return rm, cmd
}

func TestUpdateQuitCommandReturnsQuit(t *testing.T) {
	m, cmd := submit(t, newREPLModel(newTestSession(t)), ":quit")
	if !m.quitting {
		t.Fatalf("quitting flag not set")
	}
	if cmd == nil {
		t.Fatalf("expected tea.Quit command")
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(tea.QuitMsg); !ok {
			t.Fatalf("expected QuitMsg, got %T", msg)
		}
	}
}

func TestUpdateHelpCommandTogglesPanel(t *testing.T) {
	m, cmd := submit(t, newREPLModel(newTestSession(t)), ":help")
	if cmd != nil {
		t.Fatalf("expected no command for non-quit input")
	}
	if m.quitting || !m.showHelp {
		t.Fatalf("quitting=%v showHelp=%v", m.quitting, m.showHelp)
	}
	if len(m.cmdHistory) != 0 {
		t.Fatalf("commands should not enter line history")
	}
}

func TestUpdateRecordsBindingsAndErrors(t *testing.T) {
	m := newREPLModel(newTestSession(t))
	m, _ = submit(t, m, "VAR  ${port: int}  2222")
	m, _ = submit(t, m, "Connect  db  ${port}")
	m, _ = submit(t, m, "Connect  db  nope")

	if len(m.history) != 3 {
		t.Fatalf("history length = %d", len(m.history))
	}
	if m.history[1].isErr || !strings.HasPrefix(m.history[1].output, "Connect(db: string, 2222: integer") {
		t.Fatalf("unexpected entry %+v", m.history[1])
	}
	if !m.history[2].isErr || !strings.Contains(m.history[2].output, "Argument 'port'") {
		t.Fatalf("unexpected entry %+v", m.history[2])
	}
	if len(m.cmdHistory) != 3 {
		t.Fatalf("line history length = %d", len(m.cmdHistory))
	}

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = model.(replModel)
	if m.textInput.Value() != "Connect  db  nope" {
		t.Fatalf("history recall = %q", m.textInput.Value())
	}
}

func TestDocCommandDescribesKeyword(t *testing.T) {
	m, _ := submit(t, newREPLModel(newTestSession(t)), ":doc connect")
	if len(m.history) != 1 {
		t.Fatalf("history length = %d", len(m.history))
	}
	entry := m.history[0]
	if entry.isErr || entry.input != ":doc connect" || !strings.Contains(entry.output, "Opens a connection.") {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestTabCompletesKeywordName(t *testing.T) {
	m := newREPLModel(newTestSession(t))
	m.textInput.SetValue("open")
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = model.(replModel)
	if got := m.textInput.Value(); got != "Open Socket  " {
		t.Fatalf("completion = %q", got)
	}

	m.textInput.SetValue("Connect  db")
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := model.(replModel).textInput.Value(); got != "Connect  db" {
		t.Fatalf("arguments must not be completed, got %q", got)
	}
}

func TestViewRendersHistory(t *testing.T) {
	m := newREPLModel(newTestSession(t))
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = model.(replModel)
	m, _ = submit(t, m, "Connect  db")
	m.showVars = true

	view := m.View()
	for _, want := range []string{"kwbind", "Connect  db", "No variables defined"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}
