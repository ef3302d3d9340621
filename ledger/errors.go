package ledger

import (
	"errors"
	"fmt"

	"procur/store"
)

// Kind classifies ledger failures so the HTTP layer can map them to a status
// code without string matching.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindStateConflict
	KindInsufficientBalance
	KindPersistence
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func NotFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func StateConflictError(msg string) error {
	return &Error{Kind: KindStateConflict, Msg: msg}
}

func InsufficientBalanceError(msg string) error {
	return &Error{Kind: KindInsufficientBalance, Msg: msg}
}

// persistence wraps a store failure, except that a store not-found becomes a
// NotFound so callers see one taxonomy.
func persistence(msg string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Kind: KindNotFound, Msg: msg, Err: err}
	}
	return &Error{Kind: KindPersistence, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err; zero when err is not a ledger error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }
