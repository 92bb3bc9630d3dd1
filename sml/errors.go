package sml

import "fmt"

// SyntaxError is returned when SML text cannot be parsed.
type SyntaxError struct {
	// Offset is the byte offset in the input where the error was detected.
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sml: %s at offset %d", e.Msg, e.Offset)
}
