package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	// KindInvalidFormat covers credential/URL candidates rejected locally.
	// These never reach the network.
	KindInvalidFormat Kind = "invalid_format"
	// KindUnconfigured means no usable API key could be resolved.
	KindUnconfigured Kind = "unconfigured"
	// KindEmptyInput means the question was blank after trimming.
	KindEmptyInput Kind = "empty_input"
	// KindImageProcessing covers image fetch/decode failures before dispatch.
	KindImageProcessing Kind = "image_processing"
	// KindNetwork means no response arrived from the API endpoint at all.
	KindNetwork Kind = "network"
	// KindAPI is a non-200 provider response carrying a message.
	KindAPI Kind = "api"
	// KindInvalidCredential is the normalized sub-case of KindAPI for
	// "API key not valid" style rejections.
	KindInvalidCredential Kind = "invalid_credential"
	// KindNoContent is a 200 response that produced no candidate text
	// (safety filtering and the like).
	KindNoContent Kind = "no_content"
	// KindCanceled is a user- or system-initiated abort.
	KindCanceled Kind = "canceled"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing output and logs.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindInvalidFormat:
		return "Value does not match any accepted format."
	case KindUnconfigured:
		return "No API key is configured. Set one in the settings."
	case KindEmptyInput:
		return "Please enter a question."
	case KindImageProcessing:
		return "Could not load the image."
	case KindNetwork:
		return "Could not reach the API endpoint. Check your connection."
	case KindAPI:
		return "Request rejected by the API."
	case KindInvalidCredential:
		return "The API key was rejected. Please verify it in the settings."
	case KindNoContent:
		return "The model returned no answer."
	case KindCanceled:
		return "Canceled."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func InvalidFormat(err error) error   { return New(KindInvalidFormat, "", err) }
func Unconfigured(err error) error    { return New(KindUnconfigured, "", err) }
func EmptyInput(err error) error      { return New(KindEmptyInput, "", err) }
func ImageProcessing(err error) error { return New(KindImageProcessing, "", err) }
func Network(err error) error         { return New(KindNetwork, "", err) }
func API(msg string, err error) error { return New(KindAPI, msg, err) }
func NoContent(err error) error       { return New(KindNoContent, "", err) }
func Canceled(err error) error        { return New(KindCanceled, "", err) }

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

// IsCanceled reports whether the error represents an abort rather than a
// genuine failure. Canceled outcomes are not surfaced as errors to the user.
func IsCanceled(err error) bool {
	return Is(err, KindCanceled)
}
