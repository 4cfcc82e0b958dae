package pipeline

import (
	"errors"
	"time"

	reporterrors "factsheet/internal/errors"
	"factsheet/pkg/contracts/domain"
)

// Stage is a state of the run state machine.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageSelectingFunds Stage = "selecting_funds"
	StagePreprocessing  Stage = "preprocessing"
	StageRendering      Stage = "rendering"
	StageExporting      Stage = "exporting"
	StagePublishing     Stage = "publishing"
)

// BatchPolicy decides what a fund failure does to the rest of the batch.
type BatchPolicy int

const (
	// AbortOnError stops at the first failed fund and returns its error.
	AbortOnError BatchPolicy = iota
	// ContinueOnError attempts every fund and joins the failures.
	ContinueOnError
)

// String returns the policy name used in logs and manifests.
func (p BatchPolicy) String() string {
	if p == ContinueOnError {
		return "continue"
	}
	return "abort"
}

// FundOutcome is the result of processing one fund.
type FundOutcome struct {
	Fund        domain.FundID
	Workbook    string
	Document    string
	Exported    bool
	Digest      string
	Published   bool
	FailedStage Stage
	Err         error
	Duration    time.Duration
}

// OK reports whether the fund was exported and, if requested, published.
func (o FundOutcome) OK() bool { return o.Err == nil }

// BatchResult collects the outcomes of one run.
type BatchResult struct {
	RunID      string
	Selection  string
	Policy     BatchPolicy
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []FundOutcome
	// Err is the error the run returned, if any.
	Err error
}

// Documents returns the exported document paths in processing order.
func (r *BatchResult) Documents() []string {
	var docs []string
	for _, o := range r.Outcomes {
		if o.Exported {
			docs = append(docs, o.Document)
		}
	}
	return docs
}

// Failed returns the outcomes carrying an error.
func (r *BatchResult) Failed() []FundOutcome {
	var failed []FundOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// joinedErr joins every fund error.
func (r *BatchResult) joinedErr() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// outcomeLabel is the metrics label of a fund or run result.
func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(reporterrors.KindOf(err))
}
