package privacy

// SanitizedError presents a scrubbed message while keeping the original
// error reachable for errors.Is and errors.As.
type SanitizedError struct {
	err     error
	message string
}

func (e *SanitizedError) Error() string { return e.message }

func (e *SanitizedError) Unwrap() error { return e.err }

// WrapError returns err with its message passed through ScrubMessage, so the
// text is safe to log even when it embeds URLs or credentials. A nil err
// stays nil.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &SanitizedError{err: err, message: ScrubMessage(err.Error())}
}
