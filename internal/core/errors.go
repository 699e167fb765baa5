package core

// Error codes for the modeled login failures. These travel to clients
// verbatim in the error response, so they are part of the wire format.
const (
	ErrCodeUsernameInvalid     = "UsernameInvalid"
	ErrCodeUsernameUnavailable = "UsernameUnavailable"
	ErrCodeMaxUsers            = "MaxUsers"

	// Conditions the original protocol degrades silently on. They are
	// surfaced as values internally but never change what goes over the
	// wire: logout on a missing channel answers with an error envelope,
	// a non-object event payload answers with a null ack.
	ErrCodeChannelNotFound = "ChannelNotFound"
	ErrCodeInvalidPayload  = "InvalidPayload"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string `json:"code"`
	Message string `json:"-"`
}

func (e *CoreError) Error() string {
	return e.Message
}

var (
	errUsernameInvalid     = &CoreError{Code: ErrCodeUsernameInvalid, Message: "username and session id are required"}
	errUsernameUnavailable = &CoreError{Code: ErrCodeUsernameUnavailable, Message: "username is taken by another session"}
	errMaxUsers            = &CoreError{Code: ErrCodeMaxUsers, Message: "channel is full"}
	errChannelNotFound     = &CoreError{Code: ErrCodeChannelNotFound, Message: "channel does not exist"}
	errInvalidPayload      = &CoreError{Code: ErrCodeInvalidPayload, Message: "event payload must be an object"}
)
