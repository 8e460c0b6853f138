package model

import "time"

// Event is one entry in the organization's event directory.
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Open marks events whose registration window is currently open.
	Open bool `json:"open"`
}

// PaymentStatus is the remote system's payment state for a registration.
type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "UNPAID"
	PaymentCompleted         PaymentStatus = "COMPLETED"
	PaymentMustCheck         PaymentStatus = "MUST_CHECK"
	PaymentNeedPartialRefund PaymentStatus = "NEED_PARTIAL_REFUND"
	PaymentNeedRefund        PaymentStatus = "NEED_REFUND"
	PaymentRefunded          PaymentStatus = "REFUNDED"
)

// paymentStatusLabels maps wire values to operator-facing labels and back.
// Keep the two tables in sync; ParsePaymentStatusLabel is the reverse lookup.
var paymentStatusLabels = map[PaymentStatus]string{
	PaymentUnpaid:            "Unpaid",
	PaymentCompleted:         "Paid",
	PaymentMustCheck:         "Check",
	PaymentNeedPartialRefund: "Partial refund due",
	PaymentNeedRefund:        "Refund due",
	PaymentRefunded:          "Refunded",
}

// PaymentStatuses lists every status in display order.
var PaymentStatuses = []PaymentStatus{
	PaymentUnpaid,
	PaymentCompleted,
	PaymentMustCheck,
	PaymentNeedPartialRefund,
	PaymentNeedRefund,
	PaymentRefunded,
}

func (p PaymentStatus) Valid() bool {
	_, ok := paymentStatusLabels[p]
	return ok
}

// Label returns the operator-facing label, or the raw wire value for
// statuses this build does not know about.
func (p PaymentStatus) Label() string {
	if l, ok := paymentStatusLabels[p]; ok {
		return l
	}
	return string(p)
}

// ParsePaymentStatusLabel resolves an operator-facing label back to its wire
// value. It also accepts the wire value itself, so pasted values round-trip.
func ParsePaymentStatusLabel(s string) (PaymentStatus, bool) {
	for st, l := range paymentStatusLabels {
		if l == s || string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Gender is the remote system's two-letter gender code.
type Gender string

const (
	GenderMale   Gender = "MA"
	GenderFemale Gender = "FE"
)

var genderLabels = map[Gender]string{
	GenderMale:   "Male",
	GenderFemale: "Female",
}

func (g Gender) Label() string {
	if l, ok := genderLabels[g]; ok {
		return l
	}
	return string(g)
}

// ParseGenderLabel maps an operator-entered label (or the code itself) to the
// two-letter code the batch-update endpoint requires. Matching is
// case-insensitive on the first letter so "m"/"male"/"MA" all resolve.
func ParseGenderLabel(s string) (Gender, bool) {
	switch s {
	case "MA", "ma", "M", "m", "Male", "male":
		return GenderMale, true
	case "FE", "fe", "F", "f", "Female", "female":
		return GenderFemale, true
	}
	return "", false
}

// RegistrationRecord is one applicant registration as reported by the remote
// system of record. Records are immutable once fetched; a new fetch supersedes
// the whole result set.
type RegistrationRecord struct {
	ID            string        `json:"id"`
	EventID       string        `json:"eventId"`
	EventName     string        `json:"eventName,omitempty"`
	Name          string        `json:"name"`
	Gender        Gender        `json:"gender"`
	Birth         string        `json:"birth"` // YYYY-MM-DD
	Phone         string        `json:"phone"`
	Organization  string        `json:"organization,omitempty"`
	Course        string        `json:"course,omitempty"`
	RegisteredAt  time.Time     `json:"registeredAt"`
	FeeAmount     int64         `json:"feeAmount"`
	Memo          string        `json:"memo,omitempty"`
	PayerName     string        `json:"payerName,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// DisplayRow is the per-render projection of a RegistrationRecord: the record
// plus a display ordinal and a resolved event name. Rebuilt on every fetch,
// never mutated in place.
type DisplayRow struct {
	RegistrationRecord

	No        int    `json:"no"`
	EventName string `json:"eventName"`
}

// RegistrationUpdate is one row of a batch update: a whole-row replace for the
// identified, operator-editable fields.
type RegistrationUpdate struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Gender        Gender        `json:"gender"`
	Birth         string        `json:"birth"`
	Phone         string        `json:"phone"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Memo          string        `json:"memo"`
}
