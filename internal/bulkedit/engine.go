// Package bulkedit implements the console's draft-based inline edit engine:
// enter edit mode over a frozen set of rows, buffer per-field drafts, and
// either commit them as one batched whole-row update or discard them without
// a network call.
package bulkedit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"regdesk/internal/model"
)

// Mode is the engine's state: view, editing, or a save in flight.
type Mode int

const (
	ModeView Mode = iota
	ModeEditing
	ModeSaving
)

// Field names one operator-editable column. Fee amount, course and
// organization are fed by the remote system and are never editable.
type Field string

const (
	FieldName          Field = "name"
	FieldGender        Field = "gender"
	FieldBirth         Field = "birth"
	FieldPhone         Field = "phone"
	FieldPaymentStatus Field = "paymentStatus"
	FieldMemo          Field = "memo"
)

// EditableFields lists the editable columns in display order.
var EditableFields = []Field{FieldName, FieldGender, FieldBirth, FieldPhone, FieldPaymentStatus, FieldMemo}

var (
	// ErrNotEditing is returned by edit-mode-only operations in view mode.
	ErrNotEditing = errors.New("not in edit mode")
	// ErrOutOfScope is returned for rows outside the frozen editable scope.
	ErrOutOfScope = errors.New("row is not in the edit scope")
	// ErrNothingToSave is returned when a save has no rows to submit.
	ErrNothingToSave = errors.New("nothing to save")
)

// draft is one row's field overrides, seeded as a full copy of the origin row
// so every field is independently overridable and untouched fields read as
// the origin value.
type draft map[Field]string

// Engine is the two-mode bulk editor. Not safe for concurrent use; drive it
// from the console's single update loop.
type Engine struct {
	mode Mode

	// scope is frozen at Enter time: selection changes made while editing
	// never alter which rows this session can touch.
	scope  map[string]bool
	order  []string
	origin map[string]model.RegistrationRecord
	drafts map[string]draft
}

func New() *Engine {
	return &Engine{scope: map[string]bool{}}
}

func (e *Engine) Mode() Mode { return e.mode }

// Editing reports whether an edit session is open (including while saving).
func (e *Engine) Editing() bool { return e.mode != ModeView }

// InScope reports whether the row is editable in the current session.
func (e *Engine) InScope(id string) bool { return e.mode != ModeView && e.scope[id] }

// ScopeIDs returns the frozen editable scope in row order.
func (e *Engine) ScopeIDs() []string { return append([]string(nil), e.order...) }

// Enter opens an edit session over the selected rows, or over the whole page
// when nothing is selected. No network call. Entering while already editing
// is a no-op.
func (e *Engine) Enter(page []model.DisplayRow, selected []string) {
	if e.mode != ModeView {
		return
	}
	sel := map[string]bool{}
	for _, id := range selected {
		sel[id] = true
	}

	e.scope = map[string]bool{}
	e.order = nil
	e.origin = map[string]model.RegistrationRecord{}
	e.drafts = map[string]draft{}

	for _, row := range page {
		if len(sel) > 0 && !sel[row.ID] {
			continue
		}
		e.scope[row.ID] = true
		e.order = append(e.order, row.ID)
		e.origin[row.ID] = row.RegistrationRecord
		e.drafts[row.ID] = seedDraft(row.RegistrationRecord)
	}
	e.mode = ModeEditing
}

func seedDraft(rec model.RegistrationRecord) draft {
	return draft{
		FieldName:          rec.Name,
		FieldGender:        rec.Gender.Label(),
		FieldBirth:         rec.Birth,
		FieldPhone:         rec.Phone,
		FieldPaymentStatus: rec.PaymentStatus.Label(),
		FieldMemo:          rec.Memo,
	}
}

// SetField writes one drafted field, leaving the row's other fields
// untouched. Valid only while editing and only for rows in scope.
func (e *Engine) SetField(id string, f Field, value string) error {
	if e.mode != ModeEditing {
		return ErrNotEditing
	}
	if !e.scope[id] {
		return ErrOutOfScope
	}
	e.drafts[id][f] = value
	return nil
}

// FieldValue reads the drafted value for a field, which is the origin value
// until the field is touched. Rows outside the scope read their origin value.
func (e *Engine) FieldValue(id string, f Field) string {
	if e.mode != ModeView {
		if d, ok := e.drafts[id]; ok {
			return d[f]
		}
	}
	if rec, ok := e.origin[id]; ok {
		return seedDraft(rec)[f]
	}
	return ""
}

// Cancel discards every draft and returns to view mode. No network call, no
// row mutation.
func (e *Engine) Cancel() {
	if e.mode != ModeEditing {
		return
	}
	e.reset()
}

// BeginSave normalizes and merges the drafts into one batch of whole-row
// updates and moves to ModeSaving. With an empty scope it returns
// ErrNothingToSave and drops back to view mode without touching the network.
// Unparseable gender or payment values fail validation-locally: the session
// stays open so the operator can fix the field.
func (e *Engine) BeginSave() ([]model.RegistrationUpdate, error) {
	if e.mode != ModeEditing {
		return nil, ErrNotEditing
	}
	if len(e.order) == 0 {
		e.reset()
		return nil, ErrNothingToSave
	}

	updates := make([]model.RegistrationUpdate, 0, len(e.order))
	for _, id := range e.order {
		u, err := e.mergeRow(id)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	e.mode = ModeSaving
	return updates, nil
}

// FinishSave commits the outcome of the batch call. Success clears the
// drafts and returns to view mode; failure keeps the drafts and the edit
// session so the operator can retry or cancel.
func (e *Engine) FinishSave(err error) {
	if e.mode != ModeSaving {
		return
	}
	if err != nil {
		e.mode = ModeEditing
		return
	}
	e.reset()
}

func (e *Engine) reset() {
	e.mode = ModeView
	e.scope = map[string]bool{}
	e.order = nil
	e.origin = nil
	e.drafts = nil
}

func (e *Engine) mergeRow(id string) (model.RegistrationUpdate, error) {
	rec := e.origin[id]
	d := e.drafts[id]

	gender, ok := model.ParseGenderLabel(strings.TrimSpace(d[FieldGender]))
	if !ok {
		return model.RegistrationUpdate{}, fmt.Errorf("row %s: unrecognized gender %q", id, d[FieldGender])
	}
	status, ok := model.ParsePaymentStatusLabel(strings.TrimSpace(d[FieldPaymentStatus]))
	if !ok {
		return model.RegistrationUpdate{}, fmt.Errorf("row %s: unrecognized payment status %q", id, d[FieldPaymentStatus])
	}

	return model.RegistrationUpdate{
		ID:            rec.ID,
		Name:          strings.TrimSpace(d[FieldName]),
		Gender:        gender,
		Birth:         NormalizeBirth(d[FieldBirth]),
		Phone:         strings.TrimSpace(d[FieldPhone]),
		PaymentStatus: status,
		Memo:          d[FieldMemo],
	}, nil
}

var birthSeparators = regexp.MustCompile(`[.\s]+`)

// NormalizeBirth collapses any run of dot/whitespace separators to a single
// "-" so "1990.01.02" and "1990. 1. 2" both normalize to dashed form, and
// strips stray leading/trailing separators.
func NormalizeBirth(s string) string {
	s = birthSeparators.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(s, "-")
}
