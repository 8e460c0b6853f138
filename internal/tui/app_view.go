package tui

import (
	"fmt"
	"strings"

	"regdesk/internal/bulkedit"
	"regdesk/internal/model"
	"regdesk/internal/query"

	"github.com/charmbracelet/lipgloss"
)

func (m consoleModel) View() string {
	switch m.modal {
	case modalQuery, modalCellEdit, modalImport:
		return m.renderInputModal()
	case modalScope:
		return m.renderScopeModal()
	case modalHelp:
		return renderHelp(modalBodyWidth(m.width))
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilterLine())
	b.WriteString("\n")

	if len(m.qs.Rows()) == 0 && m.qs.HaveResult() {
		b.WriteString("\n" + m.renderEmptyState() + "\n")
	} else {
		b.WriteString(m.tbl.View())
		b.WriteString("\n")
	}

	if m.showDetail {
		b.WriteString(m.renderDetail())
		b.WriteString("\n")
	}
	if line := m.renderImportLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.renderMinibuffer())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m consoleModel) renderHeader() string {
	sel := m.qs.Scope()
	scopeLabel := fmtCount(sel.Size(), "event", "events")
	if ev, ok := sel.PrimaryEvent(); ok && sel.Size() == 1 {
		scopeLabel = ev.Name
	}

	left := styleHeader().Render("Registrations — " + scopeLabel)

	right := fmt.Sprintf("%s · page %d/%d",
		fmtCount(m.qs.Total(), "entry", "entries"), m.qs.State().Page, m.qs.MaxPage())
	if m.qs.Loading() {
		right = m.spin.View() + " " + right
	}
	if m.qs.Err() != nil {
		right = styleError().Render("offline? ") + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + styleMuted().Render(right)
}

func (m consoleModel) renderFilterLine() string {
	st := m.qs.State()
	parts := []string{
		"field: " + st.SearchField.Label(),
		"paid: " + paidFilterLabel(st.PaidFilter),
		"sort: " + st.SortKey.Label(),
	}
	if st.Query != "" {
		parts = append([]string{fmt.Sprintf("search: %q", st.Query)}, parts...)
	}
	if n := m.qs.Selection().Count(); n > 0 {
		parts = append(parts, fmtCount(n, "row selected", "rows selected"))
	}
	if m.edit.Editing() {
		col := bulkedit.EditableFields[m.colIdx]
		parts = append(parts, styleEdit().Render("EDITING · column: "+string(col)))
	}
	return styleMuted().Render(strings.Join(parts, "   "))
}

func paidFilterLabel(p model.PaymentStatus) string {
	if p == "" {
		return "any"
	}
	return p.Label()
}

func (m consoleModel) renderEmptyState() string {
	switch m.qs.EmptyState() {
	case query.EmptyNoData:
		return styleMuted().Render("No registrations yet for the scoped events.")
	case query.EmptyNoMatch:
		return styleMuted().Render("No registrations match the current filters. Press r to reset them.")
	}
	return ""
}

func (m consoleModel) renderDetail() string {
	row, ok := m.cursorRow()
	if !ok {
		return styleMuted().Render("No row selected.")
	}

	settled := row.PaymentStatus == model.PaymentCompleted || row.PaymentStatus == model.PaymentRefunded
	attention := row.PaymentStatus == model.PaymentMustCheck ||
		row.PaymentStatus == model.PaymentNeedRefund ||
		row.PaymentStatus == model.PaymentNeedPartialRefund

	lines := []string{
		styleHeader().Render(fmt.Sprintf("#%d  %s", row.No, row.Name)),
		fmt.Sprintf("Event: %s   Course: %s   Organization: %s",
			row.EventName, dashIfEmpty(row.Course), dashIfEmpty(row.Organization)),
		fmt.Sprintf("Gender: %s   Birth: %s   Phone: %s",
			row.Gender.Label(), row.Birth, row.Phone),
		fmt.Sprintf("Registered: %s   Fee: %s   Payer: %s   Payment: %s",
			row.RegisteredAt.Format("2006-01-02 15:04"), formatFee(row.FeeAmount),
			dashIfEmpty(row.PayerName),
			paymentStyle(row.PaymentStatus.Label(), settled, attention)),
		"Memo: " + dashIfEmpty(oneLine(row.Memo)),
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(maxInt(m.width-2, 20))
	return box.Render(strings.Join(lines, "\n"))
}

func (m consoleModel) renderImportLine() string {
	if !m.est.Running() && m.importJobID == "" {
		return ""
	}
	label := "Importing"
	if m.importCancelling {
		label = "Cancelling"
	}
	barW := m.width - len(label) - 10
	if barW < 10 {
		barW = 10
	}
	bar := m.prog
	bar.Width = barW
	return fmt.Sprintf("%s %s %3.0f%%", label, bar.ViewAs(m.est.Value()/100), m.est.Value())
}

func (m consoleModel) renderMinibuffer() string {
	if m.minibuffer == "" {
		return ""
	}
	return cell(m.minibuffer, m.width)
}

func (m consoleModel) renderFooter() string {
	if m.edit.Editing() {
		return styleMuted().Render("enter: edit cell  ←/→: column  w: save  esc: cancel  ?: help")
	}
	return styleMuted().Render("space: select  e: edit  E: scope  /: search  i: import  ?: help  q: quit")
}

func (m consoleModel) renderInputModal() string {
	var title string
	switch m.modal {
	case modalQuery:
		title = "Search"
	case modalCellEdit:
		title = "Edit " + string(m.editingCell.field)
	case modalImport:
		title = "Import registrations"
	}
	body := m.input.View() +
		"\n\n" + styleMuted().Render("enter: apply   esc/ctrl+g: cancel")
	return renderModalBox(m.width, title, body)
}

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
