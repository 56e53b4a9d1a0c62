package parser

import "errors"

// Common errors returned by the parser. All of them mark a single line
// as skippable; none is fatal to a file or a scan.
var (
	// ErrMalformedJSON is returned when a line is not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON line")

	// ErrInvalidTimestamp is returned when a record has no usable timestamp.
	ErrInvalidTimestamp = errors.New("invalid or missing timestamp")

	// ErrNotAssistant is returned for record types other than "assistant".
	ErrNotAssistant = errors.New("not an assistant record")

	// ErrMissingUsage is returned when the usage payload is absent.
	ErrMissingUsage = errors.New("missing usage payload")

	// ErrMissingMessageID is returned when the message identifier is empty.
	ErrMissingMessageID = errors.New("missing message identifier")

	// ErrNegativeTokenCount is returned when any token count is negative.
	ErrNegativeTokenCount = errors.New("negative token count")

	// ErrZeroTokens is returned when all four token counts are zero.
	ErrZeroTokens = errors.New("all token counts are zero")

	// ErrFileTooLarge is returned when a file exceeds the size cap.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)
