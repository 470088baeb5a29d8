// file: internals/features/diagnosis/runs/model/state.go
package model

import (
	"competency_backend/internals/helpers/apperror"
)

/* =========================================================
   State transitions (single source of truth)

   run:    DRAFT --open--> OPEN --close--> CLOSED
   target: PENDING --submit--> SUBMITTED
           PENDING --expire--> EXPIRED
========================================================= */

// NextRunStatus validates moving a run from `from` to `to`. Staying in the
// same non-terminal status is a no-op.
func NextRunStatus(from, to RunStatus) (RunStatus, error) {
	if from == RunStatusClosed {
		return from, apperror.ErrCannotModifyClosedDiagnosis
	}
	switch to {
	case RunStatusDraft, RunStatusOpen, RunStatusClosed:
	default:
		return from, apperror.New(apperror.KindValidation, "unknown diagnosis status %q", to)
	}
	if from == to {
		return to, nil
	}
	switch {
	case from == RunStatusDraft && to == RunStatusOpen,
		from == RunStatusOpen && to == RunStatusClosed:
		return to, nil
	}
	return from, apperror.New(apperror.KindValidation, "illegal diagnosis status transition %s -> %s", from, to)
}

type TargetEvent string

const (
	TargetEventSubmit TargetEvent = "submit"
	TargetEventExpire TargetEvent = "expire"
)

// NextTargetStatus applies an event to a target status.
func NextTargetStatus(from TargetStatus, ev TargetEvent) (TargetStatus, error) {
	switch from {
	case TargetStatusPending:
		switch ev {
		case TargetEventSubmit:
			return TargetStatusSubmitted, nil
		case TargetEventExpire:
			return TargetStatusExpired, nil
		}
	case TargetStatusSubmitted:
		if ev == TargetEventSubmit {
			return from, apperror.ErrAlreadySubmitted
		}
		return from, apperror.New(apperror.KindValidation, "submitted target cannot expire")
	case TargetStatusExpired:
		if ev == TargetEventSubmit {
			return from, apperror.ErrTargetExpired
		}
		return from, nil
	}
	return from, apperror.New(apperror.KindValidation, "illegal target transition %s on %s", ev, from)
}
