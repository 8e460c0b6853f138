package tui

import (
	"errors"

	"regdesk/internal/model"
	"regdesk/internal/scope"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// scopeEventItem is one event in the scope picker, rendered with its current
// in-scope state.
type scopeEventItem struct {
	event   model.Event
	inScope bool
}

func (i scopeEventItem) Title() string {
	mark := "[ ]"
	if i.inScope {
		mark = "[x]"
	}
	return mark + " " + i.event.Name
}

func (i scopeEventItem) Description() string {
	if i.event.Open {
		return i.event.ID + "  (registration open)"
	}
	return i.event.ID
}

func (i scopeEventItem) FilterValue() string { return i.event.Name }

func newScopeList() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Events in scope"
	// Keep list chrome minimal inside the modal.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	return l
}

func (m *consoleModel) refreshScopeList() {
	sel := m.qs.Scope()
	cur := m.scopeList.Index()
	var items []list.Item
	for _, e := range sel.Universe() {
		items = append(items, scopeEventItem{event: e, inScope: sel.Has(e.ID)})
	}
	m.scopeList.SetItems(items)
	if cur < len(items) {
		m.scopeList.Select(cur)
	}
}

func (m consoleModel) onScopeModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the list's filter input is active, let the list consume
	// everything except cancel.
	if m.scopeList.SettingFilter() {
		var cmd tea.Cmd
		m.scopeList, cmd = m.scopeList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "q", "E":
		m.modal = modalNone
		// Scope mutations made in the modal coalesce into one fetch here.
		return m, m.settleCmd()

	case " ", "enter":
		if it, ok := m.scopeList.SelectedItem().(scopeEventItem); ok {
			if err := m.qs.ToggleScope(it.event.ID); err != nil {
				if errors.Is(err, scope.ErrLastEvent) {
					m.minibuffer = "Keep at least one event in scope"
				} else {
					m.minibuffer = err.Error()
				}
				return m, nil
			}
			m.refreshScopeList()
		}
		return m, nil

	case "x":
		if it, ok := m.scopeList.SelectedItem().(scopeEventItem); ok {
			if err := m.qs.RemoveScope(it.event.ID); err != nil {
				if errors.Is(err, scope.ErrLastEvent) {
					m.minibuffer = "Keep at least one event in scope"
				} else {
					m.minibuffer = err.Error()
				}
				return m, nil
			}
			m.refreshScopeList()
		}
		return m, nil

	case "a":
		m.qs.ScopeAll()
		m.refreshScopeList()
		return m, nil

	case "n":
		m.qs.ScopeNone()
		m.refreshScopeList()
		return m, nil
	}

	var cmd tea.Cmd
	m.scopeList, cmd = m.scopeList.Update(msg)
	return m, cmd
}

func (m consoleModel) renderScopeModal() string {
	body := m.scopeList.View() +
		"\n\n" + styleMuted().Render("space: toggle   x: remove   a: all   n: none   esc: done")
	return renderModalBox(m.width, "Scope", body)
}
