package command

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/tavern-bot/internal/storage"
)

// ErrorKind is the closed set of failure classes surfaced to users.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindMissingPermissions
	KindMissingAccess
	KindDatabase
	KindExpired
	KindUnresolvable
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingPermissions:
		return "missing_permissions"
	case KindMissingAccess:
		return "missing_access"
	case KindDatabase:
		return "database_error"
	case KindRuntime:
		return "runtime_error"
	case KindExpired:
		return "expired"
	case KindUnresolvable:
		return "unresolvable"
	}
	return "unknown"
}

// Message is the user-facing text for the kind. Unresolvable has none.
func (k ErrorKind) Message() string {
	switch k {
	case KindMissingPermissions:
		return "You don't have the permissions required to use this command."
	case KindMissingAccess:
		return "I don't have access to do that here."
	case KindDatabase:
		return "A database error occurred. Please try again."
	case KindExpired:
		return "This interaction has timed out. Please run the command again."
	case KindUnresolvable:
		return ""
	}
	return "An unexpected error occurred. Please try again later."
}

// Error is a classified failure raised by guards or handlers.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Classify maps any error onto the closed taxonomy.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindRuntime
	}

	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind
	}

	var storeErr *storage.Error
	if errors.As(err, &storeErr) {
		return KindDatabase
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingPermissions:
			return KindMissingPermissions
		case discordgo.ErrCodeMissingAccess:
			return KindMissingAccess
		}
	}

	return KindRuntime
}
