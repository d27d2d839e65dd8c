package engine

import "time"

// Kind identifies a notification. Plug-ins may declare kinds of their own.
type Kind string

const (
	KindStart           Kind = "start"
	KindGroupStarted    Kind = "example_group_started"
	KindExampleStarted  Kind = "example_started"
	KindMessage         Kind = "message"
	KindExampleFinished Kind = "example_finished"
	KindGroupFinished   Kind = "example_group_finished"
	KindDumpPending     Kind = "dump_pending"
	KindDumpFailures    Kind = "dump_failures"
	KindDumpSummary     Kind = "dump_summary"
)

// Notification is the payload delivered with a Kind.
// Notifications declared outside this package embed one of the types below.
type Notification interface {
	notification()
}

// StartNotification is delivered with KindStart
type StartNotification struct {
	ExampleCount int
}

// GroupNotification is delivered with the group kinds
type GroupNotification struct {
	Group *Group
}

// ExampleNotification is delivered with the example kinds
type ExampleNotification struct {
	Example *Example
}

// MessageNotification carries a free-form message logged by an example body
type MessageNotification struct {
	Message string
}

// ExamplesNotification is delivered with KindDumpPending and KindDumpFailures
type ExamplesNotification struct {
	PendingNotifications []PendingExampleNotification
	FailureNotifications []FailedExampleNotification
}

// PendingExampleNotification wraps a pending example for the pending dump
type PendingExampleNotification struct {
	Example *Example
}

// FailedExampleNotification wraps a failed example for the failure dump
type FailedExampleNotification struct {
	Example *Example
}

// SummaryNotification is delivered with KindDumpSummary
type SummaryNotification struct {
	Duration       time.Duration
	Examples       []*Example
	FailedExamples []*Example
	PendingCount   int
}

func (StartNotification) notification()          {}
func (GroupNotification) notification()          {}
func (ExampleNotification) notification()        {}
func (MessageNotification) notification()        {}
func (ExamplesNotification) notification()       {}
func (PendingExampleNotification) notification() {}
func (FailedExampleNotification) notification()  {}
func (SummaryNotification) notification()        {}
