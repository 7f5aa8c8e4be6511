// Package cli implements the schemaflow command line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes.
const (
	ExitSuccess      = 0 // consistent pipeline / all scenarios passed
	ExitFailure      = 1 // violations found or scenarios failed
	ExitCommandError = 2 // command error (bad paths, bad declarations, etc.)
)

// ExitError is an error carrying a process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode extracts the exit code from an error. Errors that are not
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output; defaults to Writer
	Verbose   bool
}

// Response is the standard JSON envelope for command output.
type Response struct {
	Status string        `json:"status"` // "ok" or "error"
	Data   any           `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError is the error body of a JSON response.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success emits a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Failure emits an error result in the configured format. data rides
// along in JSON mode so machine consumers still get the full payload.
func (f *OutputFormatter) Failure(code, message string, data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{
			Status: "error",
			Data:   data,
			Error:  &ResponseError{Code: code, Message: message},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return nil
}

// VerboseLog emits a diagnostic line when verbose mode is on. Goes to
// ErrWriter so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
