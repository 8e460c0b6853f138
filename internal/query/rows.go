package query

import "regdesk/internal/model"

// ProjectRows maps one raw result page into display rows: every record is
// copied, given a display ordinal, and records that omit an event name get the
// primary scoped event's name. Pure function; rebuilt on every fetch.
func ProjectRows(content []model.RegistrationRecord, page, pageSize int, primary model.Event) []model.DisplayRow {
	if len(content) == 0 {
		return []model.DisplayRow{}
	}
	rows := make([]model.DisplayRow, 0, len(content))
	base := (page - 1) * pageSize
	for i, rec := range content {
		name := rec.EventName
		if name == "" {
			name = primary.Name
		}
		rows = append(rows, model.DisplayRow{
			RegistrationRecord: rec,
			No:                 base + i + 1,
			EventName:          name,
		})
	}
	return rows
}

// EmptyKind distinguishes the two empty-result situations so the console can
// pick the right empty-state message.
type EmptyKind int

const (
	// EmptyNone: the page has rows.
	EmptyNone EmptyKind = iota
	// EmptyNoData: the scoped events have no registrations at all.
	EmptyNoData
	// EmptyNoMatch: registrations exist, but none match the active filters.
	EmptyNoMatch
)

// Empty classifies a result set. A non-zero total with an empty page (e.g. a
// stale page number past the last page) counts as EmptyNoMatch.
func Empty(rows []model.DisplayRow, total int, s State) EmptyKind {
	if len(rows) > 0 {
		return EmptyNone
	}
	if total == 0 && !filterActive(s) {
		return EmptyNoData
	}
	return EmptyNoMatch
}

func filterActive(s State) bool {
	return s.Query != "" || s.PaidFilter != ""
}
