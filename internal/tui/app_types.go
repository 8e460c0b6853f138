package tui

import (
	"regdesk/internal/api"
	"regdesk/internal/model"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalQuery
	modalCellEdit
	modalScope
	modalImport
	modalHelp
)

type fetchDoneMsg struct {
	seq int
	res *api.SearchResult
	err error
}

type eventsMsg struct {
	events []model.Event
	err    error
}

type saveDoneMsg struct {
	count int
	err   error
}

type importStartedMsg struct {
	job *api.ImportJob
	err error
}

type importStatusMsg struct {
	status *api.ImportStatus
	err    error
}

type importCancelMsg struct {
	err error
}

// progressTickMsg drives the estimator on a per-frame cadence; the loop stops
// by not rescheduling once the job is no longer running.
type progressTickMsg struct{}

// importPollMsg drives the slower completion poll against the server.
type importPollMsg struct{}
