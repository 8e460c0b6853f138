package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"regdesk/internal/api"
	"regdesk/internal/bulkedit"
	"regdesk/internal/cache"
	"regdesk/internal/model"
	"regdesk/internal/progress"
	"regdesk/internal/query"
	"regdesk/internal/scope"
	"regdesk/internal/store"

	"github.com/charmbracelet/bubbles/list"
	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// Config wires the console to its collaborators. Client and DefaultEventID
// are required.
type Config struct {
	Client         *api.Client
	Workspace      store.Store
	DefaultEventID string
	Cache          cache.Cache
	PageSize       int

	// Link is an optional deep-link query string (same parameters the
	// console persists); it wins over the saved location.
	Link string
}

type consoleModel struct {
	client *api.Client
	ws     store.Store

	qs   *query.Store
	edit *bulkedit.Engine
	est  *progress.Estimator

	width  int
	height int

	tbl        table.Model
	colIdx     int // editable-column cursor while editing
	showDetail bool

	modal     modalKind
	input     textinput.Model
	scopeList list.Model
	prog      bprogress.Model
	spin      spinner.Model

	// editingCell is the cell bound to the input while modalCellEdit is open.
	editingCell struct {
		id    string
		field bulkedit.Field
	}

	importJobID      string
	importCancelling bool

	minibuffer string

	// debugLogPath enables opt-in diagnostics (REGDESK_DEBUG_LOG=path).
	debugLogPath string
}

func newConsoleModel(cfg Config) consoleModel {
	sel := scope.New(cfg.DefaultEventID)

	// Best-effort: restore the last session's scope and location.
	st, err := cfg.Workspace.LoadConsoleState()
	if err == nil && len(st.ScopeEventIDs) > 0 {
		sel.Restore(st.ScopeEventIDs)
	}

	qs := query.NewStore(query.Options{
		Scope:    sel,
		Cache:    cfg.Cache,
		Location: &persistedLocation{ws: cfg.Workspace, scope: sel},
		PageSize: cfg.PageSize,
	})
	switch {
	case strings.TrimSpace(cfg.Link) != "":
		qs.ApplyLocation(cfg.Link)
	case err == nil && st.Location != "":
		qs.ApplyLocation(st.Location)
	}

	m := consoleModel{
		client: cfg.Client,
		ws:     cfg.Workspace,
		qs:     qs,
		edit:   bulkedit.New(),
		est:    progress.NewEstimator(),
	}

	m.tbl = table.New(table.WithColumns(m.columns(96)), table.WithFocused(true))
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		Bold(true).
		Foreground(colorHeaderFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true)
	ts.Selected = ts.Selected.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(false)
	m.tbl.SetStyles(ts)

	m.input = textinput.New()
	m.input.CharLimit = 200
	m.input.Width = 40

	m.scopeList = newScopeList()

	m.prog = bprogress.New(bprogress.WithDefaultGradient())
	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot

	m.debugLogPath = strings.TrimSpace(os.Getenv("REGDESK_DEBUG_LOG"))

	return m
}

// debugLogf appends one line to the opt-in debug log. A no-op unless
// REGDESK_DEBUG_LOG points at a writable path; the TUI itself must stay
// silent on stdout/stderr.
func (m *consoleModel) debugLogf(format string, args ...any) {
	if m.debugLogPath == "" {
		return
	}
	f, err := os.OpenFile(m.debugLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, time.Now().Format("15:04:05.000 ")+format+"\n", args...)
}

// tableColumn describes one grid column; width 0 marks the flexible column
// that absorbs leftover terminal width.
type tableColumn struct {
	title string
	width int
}

var gridColumns = []tableColumn{
	{title: " ", width: 2},
	{title: "No", width: 5},
	{title: "Name", width: 12},
	{title: "Gender", width: 6},
	{title: "Birth", width: 10},
	{title: "Phone", width: 13},
	{title: "Organization", width: 14},
	{title: "Course", width: 10},
	{title: "Fee", width: 9},
	{title: "Payment", width: 14},
	{title: "Memo", width: 0},
}

func (m consoleModel) columns(width int) []table.Column {
	fixed := 0
	for _, c := range gridColumns {
		fixed += c.width + 2 // bubbles/table pads each cell
	}
	memoW := width - fixed
	if memoW < 8 {
		memoW = 8
	}
	cols := make([]table.Column, 0, len(gridColumns))
	for _, c := range gridColumns {
		w := c.width
		if w == 0 {
			w = memoW
		}
		cols = append(cols, table.Column{Title: c.title, Width: w})
	}
	return cols
}

// refreshTable rebuilds the grid rows from the store's projection, overlaying
// drafted values for rows inside the current edit scope.
func (m *consoleModel) refreshTable() {
	rows := m.qs.Rows()
	sel := m.qs.Selection()
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, m.gridRow(r, sel))
	}
	cur := m.tbl.Cursor()
	m.tbl.SetRows(out)
	if cur >= len(out) {
		cur = len(out) - 1
	}
	if cur < 0 {
		cur = 0
	}
	m.tbl.SetCursor(cur)
}

func (m *consoleModel) gridRow(r model.DisplayRow, sel *query.Selection) table.Row {
	mark := " "
	switch {
	case m.edit.Editing() && m.edit.InScope(r.ID):
		mark = "»"
	case sel.Has(r.ID):
		mark = "✓"
	}

	name := r.Name
	gender := r.Gender.Label()
	birth := r.Birth
	phone := r.Phone
	payment := r.PaymentStatus.Label()
	memo := r.Memo
	if m.edit.Editing() && m.edit.InScope(r.ID) {
		name = m.edit.FieldValue(r.ID, bulkedit.FieldName)
		gender = m.edit.FieldValue(r.ID, bulkedit.FieldGender)
		birth = m.edit.FieldValue(r.ID, bulkedit.FieldBirth)
		phone = m.edit.FieldValue(r.ID, bulkedit.FieldPhone)
		payment = m.edit.FieldValue(r.ID, bulkedit.FieldPaymentStatus)
		memo = m.edit.FieldValue(r.ID, bulkedit.FieldMemo)
	}

	return table.Row{
		mark,
		strconv.Itoa(r.No),
		oneLine(name),
		oneLine(gender),
		oneLine(birth),
		oneLine(phone),
		oneLine(r.Organization),
		oneLine(r.Course),
		formatFee(r.FeeAmount),
		oneLine(payment),
		oneLine(memo),
	}
}

func formatFee(amount int64) string {
	// Group thousands for readability: 1234567 -> 1,234,567.
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

// cursorRow returns the row under the cursor.
func (m consoleModel) cursorRow() (model.DisplayRow, bool) {
	rows := m.qs.Rows()
	i := m.tbl.Cursor()
	if i < 0 || i >= len(rows) {
		return model.DisplayRow{}, false
	}
	return rows[i], true
}

func (m *consoleModel) resize() {
	w := m.width
	if w < 60 {
		w = 60
	}
	h := m.height - chromeLines
	if m.showDetail {
		h -= detailLines
	}
	if h < 5 {
		h = 5
	}
	m.tbl.SetColumns(m.columns(w))
	m.tbl.SetWidth(w)
	m.tbl.SetHeight(h)
	m.scopeList.SetSize(modalBodyWidth(w), 12)
}

const (
	chromeLines = 7 // header, filter line, footer, minibuffer, paddings
	detailLines = 8
)

// persistedLocation mirrors the encoded query state into the workspace's
// console state file, the TUI's analog of replacing the page URL (no history
// entry is created).
type persistedLocation struct {
	ws    store.Store
	scope *scope.Selector
}

func (p *persistedLocation) Replace(rawQuery string) {
	st, err := p.ws.LoadConsoleState()
	if err != nil {
		return
	}
	st.Location = rawQuery
	st.ScopeEventIDs = p.scope.IDs()
	_ = p.ws.SaveConsoleState(st)
}

func fmtCount(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
