// file: internals/helpers/apperror/apperror.go
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies a caller-facing failure. Services return *Error values
// and the HTTP layer maps the kind to a status code.
type Kind string

const (
	KindDiagnosisNotFound             Kind = "DIAGNOSIS_NOT_FOUND"
	KindSemesterNotFound              Kind = "SEMESTER_NOT_FOUND"
	KindAccountNotFound               Kind = "ACCOUNT_NOT_FOUND"
	KindDuplicateDiagnosisForSemester Kind = "DUPLICATE_DIAGNOSIS_FOR_SEMESTER"
	KindCannotModifyClosedDiagnosis   Kind = "CANNOT_MODIFY_CLOSED_DIAGNOSIS"
	KindCannotDeleteDiagnosisWithSubs Kind = "CANNOT_DELETE_DIAGNOSIS_WITH_SUBMISSIONS"
	KindCannotModifyQuestionsWithSubs Kind = "CANNOT_MODIFY_QUESTIONS_WITH_SUBMISSIONS"
	KindNotATarget                    Kind = "NOT_A_TARGET"
	KindAlreadySubmitted              Kind = "ALREADY_SUBMITTED"
	KindTargetExpired                 Kind = "TARGET_EXPIRED"
	KindDiagnosisNotOpen              Kind = "DIAGNOSIS_NOT_OPEN"
	KindValidation                    Kind = "VALIDATION_ERROR"
	KindInternal                      Kind = "INTERNAL"
)

// Sentinels for errors.Is. Two *Error values match when their kinds match,
// so wrapped/annotated errors still compare equal to these.
var (
	ErrDiagnosisNotFound                    = &Error{Kind: KindDiagnosisNotFound, Message: "diagnosis not found"}
	ErrSemesterNotFound                     = &Error{Kind: KindSemesterNotFound, Message: "semester not found"}
	ErrAccountNotFound                      = &Error{Kind: KindAccountNotFound, Message: "account not found"}
	ErrDuplicateDiagnosisForSemester        = &Error{Kind: KindDuplicateDiagnosisForSemester, Message: "a diagnosis already exists for this semester, grade and department"}
	ErrCannotModifyClosedDiagnosis          = &Error{Kind: KindCannotModifyClosedDiagnosis, Message: "closed diagnosis cannot be modified"}
	ErrCannotDeleteDiagnosisWithSubmissions = &Error{Kind: KindCannotDeleteDiagnosisWithSubs, Message: "diagnosis with submissions cannot be deleted"}
	ErrCannotModifyQuestionsWithSubmissions = &Error{Kind: KindCannotModifyQuestionsWithSubs, Message: "questions are locked once submissions exist"}
	ErrNotATarget                           = &Error{Kind: KindNotATarget, Message: "student is not a target of this diagnosis"}
	ErrAlreadySubmitted                     = &Error{Kind: KindAlreadySubmitted, Message: "diagnosis already submitted"}
	ErrTargetExpired                        = &Error{Kind: KindTargetExpired, Message: "diagnosis target has expired"}
	ErrDiagnosisNotOpen                     = &Error{Kind: KindDiagnosisNotOpen, Message: "diagnosis is not open for submissions"}
	ErrValidation                           = &Error{Kind: KindValidation, Message: "validation failed"}
)

type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind with a custom message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps err as the cause of a caller-facing error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a VALIDATION_ERROR with an optional field breakdown.
func Validation(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// KindOf returns the kind carried by err, or KindInternal for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindDiagnosisNotFound, KindSemesterNotFound, KindAccountNotFound:
		return http.StatusNotFound
	case KindDuplicateDiagnosisForSemester,
		KindCannotModifyClosedDiagnosis,
		KindCannotDeleteDiagnosisWithSubs,
		KindCannotModifyQuestionsWithSubs,
		KindAlreadySubmitted,
		KindTargetExpired,
		KindDiagnosisNotOpen:
		return http.StatusConflict
	case KindNotATarget:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
