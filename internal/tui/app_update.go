package tui

import (
	"context"
	"errors"
	"time"

	"regdesk/internal/bulkedit"
	"regdesk/internal/model"
	"regdesk/internal/progress"
	"regdesk/internal/query"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fetchTimeout  = 10 * time.Second
	importPollGap = 700 * time.Millisecond
)

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(m.loadEventsCmd(), m.settleCmd(), m.spin.Tick)
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case eventsMsg:
		if msg.err != nil {
			m.minibuffer = "Events: " + msg.err.Error()
			return m, nil
		}
		m.qs.Scope().SetUniverse(msg.events)
		m.qs.ApplyScopeHint()
		m.refreshScopeList()
		return m, m.settleCmd()

	case fetchDoneMsg:
		if !m.qs.Resolve(msg.seq, msg.res, msg.err) {
			m.debugLogf("fetch discarded seq=%d err=%v", msg.seq, msg.err)
			return m, nil // superseded by a newer request
		}
		m.refreshTable()
		if m.qs.Err() != nil {
			m.minibuffer = "Fetch failed: " + m.qs.Err().Error() + " (showing last results)"
		}
		return m, nil

	case saveDoneMsg:
		m.edit.FinishSave(msg.err)
		if msg.err != nil {
			m.minibuffer = "Save failed: " + msg.err.Error()
			m.refreshTable()
			return m, nil
		}
		m.minibuffer = "Saved " + fmtCount(msg.count, "registration", "registrations")
		m.qs.InvalidateAndRefetch()
		m.refreshTable()
		return m, m.settleCmd()

	case importStartedMsg:
		if msg.err != nil {
			m.est.Cancel()
			m.minibuffer = "Import failed to start: " + msg.err.Error()
			return m, nil
		}
		m.importJobID = msg.job.ID
		return m, importPollTick()

	case importStatusMsg:
		return m.onImportStatus(msg)

	case importCancelMsg:
		if msg.err != nil {
			m.minibuffer = "Cancel request failed: " + msg.err.Error()
		}
		return m, nil

	case progressTickMsg:
		if !m.est.Running() {
			return m, nil
		}
		m.est.Tick()
		return m, progressTick()

	case importPollMsg:
		if m.importJobID == "" {
			return m, nil
		}
		return m, m.importStatusCmd()

	case spinner.TickMsg:
		if !m.qs.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m consoleModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.debugLogf("key modal=%d editing=%v str=%q", int(m.modal), m.edit.Editing(), msg.String())
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	m.minibuffer = ""

	switch m.modal {
	case modalQuery, modalCellEdit, modalImport:
		return m.onInputModalKey(msg)
	case modalScope:
		return m.onScopeModalKey(msg)
	case modalHelp:
		m.modal = modalNone
		return m, nil
	}

	if m.edit.Editing() {
		return m.onEditKey(msg)
	}
	return m.onViewKey(msg)
}

func (m consoleModel) onViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case " ":
		if row, ok := m.cursorRow(); ok {
			m.qs.Selection().Toggle(row.ID)
			m.refreshTable()
		}
		return m, nil

	case "a":
		m.qs.Selection().SelectAll(m.qs.PageIDs())
		m.refreshTable()
		return m, nil

	case "A":
		m.qs.Selection().ClearPage(m.qs.PageIDs())
		m.refreshTable()
		return m, nil

	case "left", "h", "[":
		if p := m.qs.State().Page; p > 1 {
			m.qs.SetPage(p - 1)
			return m, m.settleCmd()
		}
		return m, nil

	case "right", "l", "]":
		if p := m.qs.State().Page; p < m.qs.MaxPage() {
			m.qs.SetPage(p + 1)
			return m, m.settleCmd()
		}
		return m, nil

	case "/":
		m.modal = modalQuery
		m.input.Placeholder = "Search " + m.qs.State().SearchField.Label()
		m.input.SetValue(m.qs.State().Query)
		m.input.CursorEnd()
		m.input.Focus()
		return m, nil

	case "f":
		m.qs.SetSearchField(cycleSearchField(m.qs.State().SearchField))
		return m, m.settleCmd()

	case "p":
		m.qs.SetPaidFilter(cyclePaidFilter(m.qs.State().PaidFilter))
		return m, m.settleCmd()

	case "o":
		m.qs.SetSortKey(cycleSortKey(m.qs.State().SortKey))
		return m, m.settleCmd()

	case "r":
		m.qs.Reset()
		m.minibuffer = "Filters reset"
		return m, m.settleCmd()

	case "ctrl+r":
		m.qs.InvalidateAndRefetch()
		return m, m.settleCmd()

	case "e":
		m.edit.Enter(m.qs.Rows(), m.qs.Selection().IDs())
		m.colIdx = 0
		m.refreshTable()
		m.minibuffer = "Editing " + fmtCount(len(m.edit.ScopeIDs()), "row", "rows") +
			"  (enter: edit cell  ←/→: column  w: save  esc: cancel)"
		return m, nil

	case "E":
		m.refreshScopeList()
		m.modal = modalScope
		return m, nil

	case "enter", "d":
		m.showDetail = !m.showDetail
		m.resize()
		return m, nil

	case "i":
		if m.importJobID != "" {
			m.minibuffer = "An import is already running"
			return m, nil
		}
		m.modal = modalImport
		m.input.Placeholder = "Path to registration sheet"
		m.input.SetValue("")
		m.input.Focus()
		return m, nil

	case "c":
		return m.cancelImport()

	case "?":
		m.modal = modalHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m consoleModel) onEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.edit.Cancel()
		m.refreshTable()
		m.minibuffer = "Edit cancelled; no changes written"
		return m, nil

	case "left", "h":
		if m.colIdx > 0 {
			m.colIdx--
		}
		return m, nil

	case "right", "l":
		if m.colIdx < len(bulkedit.EditableFields)-1 {
			m.colIdx++
		}
		return m, nil

	case "enter":
		row, ok := m.cursorRow()
		if !ok {
			return m, nil
		}
		if !m.edit.InScope(row.ID) {
			m.minibuffer = "Row is outside the edit scope"
			return m, nil
		}
		f := bulkedit.EditableFields[m.colIdx]
		m.editingCell.id = row.ID
		m.editingCell.field = f
		m.modal = modalCellEdit
		m.input.Placeholder = string(f)
		m.input.SetValue(m.edit.FieldValue(row.ID, f))
		m.input.CursorEnd()
		m.input.Focus()
		return m, nil

	case "w", "ctrl+s":
		updates, err := m.edit.BeginSave()
		if err != nil {
			if errors.Is(err, bulkedit.ErrNothingToSave) {
				m.minibuffer = "Nothing to save"
				m.refreshTable()
				return m, nil
			}
			m.minibuffer = err.Error()
			return m, nil
		}
		return m, m.saveCmd(updates)
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m consoleModel) onInputModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		kind := m.modal
		m.closeInput()
		if kind == modalImport {
			m.minibuffer = "Import aborted"
		}
		return m, nil

	case "enter":
		value := m.input.Value()
		switch m.modal {
		case modalQuery:
			m.closeInput()
			m.qs.SetQuery(value)
			return m, m.settleCmd()

		case modalCellEdit:
			id, f := m.editingCell.id, m.editingCell.field
			m.closeInput()
			if err := m.edit.SetField(id, f, value); err != nil {
				m.minibuffer = err.Error()
				return m, nil
			}
			m.refreshTable()
			return m, nil

		case modalImport:
			m.closeInput()
			if value == "" {
				m.minibuffer = "Import aborted"
				return m, nil
			}
			m.est.Start()
			return m, tea.Batch(m.startImportCmd(value), progressTick())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *consoleModel) closeInput() {
	m.modal = modalNone
	m.input.SetValue("")
	m.input.Blur()
	m.editingCell.id = ""
	m.editingCell.field = ""
}

func (m consoleModel) cancelImport() (tea.Model, tea.Cmd) {
	if m.importJobID == "" || m.importCancelling {
		return m, nil
	}
	m.importCancelling = true
	m.minibuffer = "Cancelling import…"
	return m, m.cancelImportCmd()
}

func (m consoleModel) onImportStatus(msg importStatusMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Transient poll failure; keep polling.
		return m, importPollTick()
	}
	if !msg.status.Done {
		return m, importPollTick()
	}

	jobCancelled := m.importCancelling
	m.importJobID = ""
	m.importCancelling = false

	switch {
	case jobCancelled:
		m.est.Cancel()
		m.minibuffer = "Import cancelled"
	case msg.status.Error != "":
		m.est.Cancel()
		m.minibuffer = "Import failed: " + msg.status.Error
	default:
		m.est.Complete()
		m.minibuffer = "Import complete"
		m.qs.InvalidateAndRefetch()
		return m, m.settleCmd()
	}
	return m, nil
}

// settleCmd flushes pending mutations into (at most) one fetch command.
func (m *consoleModel) settleCmd() tea.Cmd {
	f := m.qs.Settle()
	m.refreshTable()
	if f == nil {
		return nil
	}
	client := m.client
	seq, req := f.Seq, f.Request
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		res, err := client.SearchRegistrations(ctx, req)
		return fetchDoneMsg{seq: seq, res: res, err: err}
	}
	return tea.Batch(fetch, m.spin.Tick)
}

func (m consoleModel) loadEventsCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		events, err := client.ListEvents(ctx)
		return eventsMsg{events: events, err: err}
	}
}

func (m consoleModel) saveCmd(updates []model.RegistrationUpdate) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		err := client.UpdateRegistrations(ctx, updates)
		return saveDoneMsg{count: len(updates), err: err}
	}
}

func (m consoleModel) startImportCmd(path string) tea.Cmd {
	client := m.client
	eventID := m.qs.Scope().PrimaryID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		job, err := client.StartImport(ctx, eventID, path)
		return importStartedMsg{job: job, err: err}
	}
}

func (m consoleModel) importStatusCmd() tea.Cmd {
	client := m.client
	jobID := m.importJobID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		st, err := client.GetImportStatus(ctx, jobID)
		return importStatusMsg{status: st, err: err}
	}
}

func (m consoleModel) cancelImportCmd() tea.Cmd {
	client := m.client
	jobID := m.importJobID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return importCancelMsg{err: client.CancelImport(ctx, jobID)}
	}
}

func progressTick() tea.Cmd {
	return tea.Tick(progress.DefaultTickInterval, func(time.Time) tea.Msg { return progressTickMsg{} })
}

func importPollTick() tea.Cmd {
	return tea.Tick(importPollGap, func(time.Time) tea.Msg { return importPollMsg{} })
}

func cycleSearchField(f query.SearchField) query.SearchField {
	for i, cur := range query.SearchFields {
		if cur == f {
			return query.SearchFields[(i+1)%len(query.SearchFields)]
		}
	}
	return query.FieldAll
}

// cyclePaidFilter rotates through "" (any) and every payment status.
func cyclePaidFilter(p model.PaymentStatus) model.PaymentStatus {
	if p == "" {
		return model.PaymentStatuses[0]
	}
	for i, cur := range model.PaymentStatuses {
		if cur == p {
			if i == len(model.PaymentStatuses)-1 {
				return ""
			}
			return model.PaymentStatuses[i+1]
		}
	}
	return ""
}

func cycleSortKey(k query.SortKey) query.SortKey {
	for i, cur := range query.SortKeys {
		if cur == k {
			return query.SortKeys[(i+1)%len(query.SortKeys)]
		}
	}
	return query.SortByID
}
