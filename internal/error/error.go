package error

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var ErrDeckNotFound = errors.New("deck does not belong to this ship")

func ErrBoardNotExists(boardUuid string) error {
	return fmt.Errorf("board with this uuid does not exist, uuid: %s", boardUuid)
}

func ErrBoardIsNil(boardUuid string) error {
	return fmt.Errorf("board with this uuid is nil, uuid: %s", boardUuid)
}

func ErrSessionNotFound(sessionId string) error {
	return fmt.Errorf("session with this id does not exist, id: %s", sessionId)
}

func ErrSessionIsNil(sessionId string) error {
	return fmt.Errorf("session with this id is nil, id: %s", sessionId)
}

func ErrSessionHasNoBoard(sessionId string) error {
	return fmt.Errorf("session has not created a board yet, id: %s", sessionId)
}

func ErrSignalCodeAbsent() error {
	return fmt.Errorf("incoming message has no code field")
}

func ErrFireCoordinatesAbsent() error {
	return fmt.Errorf("fire request must contain both row and column")
}

func ErrDeckNotInShip(row, column, shipId int) error {
	return fmt.Errorf("%w\trow: %d\tcolumn: %d\tship: %d", ErrDeckNotFound, row, column, shipId)
}

func ErrFleetConfigInvalid(reason string) error {
	return fmt.Errorf("fleet config is invalid: %s", reason)
}

// InvalidPlacementError is returned when a ship placement cannot
// describe a straight ship of length 1 to 4 inside the grid.
type InvalidPlacementError struct {
	Index  int
	Reason string
}

func NewInvalidPlacementError(index int, format string, args ...any) *InvalidPlacementError {
	return &InvalidPlacementError{Index: index, Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidPlacementError) Error() string {
	return fmt.Sprintf("invalid placement at index %d: %s", e.Index, e.Reason)
}

// InvalidFleetError carries every fleet rule the board violates.
type InvalidFleetError struct {
	merr *multierror.Error
}

func NewInvalidFleetError() *InvalidFleetError {
	return &InvalidFleetError{merr: &multierror.Error{ErrorFormat: formatViolations}}
}

func (e *InvalidFleetError) AddViolation(format string, args ...any) {
	e.merr = multierror.Append(e.merr, fmt.Errorf(format, args...))
}

// Returns nil if no violation was added so callers can return
// the result directly as an error.
func (e *InvalidFleetError) ErrorOrNil() error {
	if e == nil || e.merr.Len() == 0 {
		return nil
	}
	return e
}

func (e *InvalidFleetError) Violations() []string {
	violations := make([]string, 0, e.merr.Len())
	for _, err := range e.merr.Errors {
		violations = append(violations, err.Error())
	}
	return violations
}

func (e *InvalidFleetError) Error() string {
	return e.merr.Error()
}

func (e *InvalidFleetError) Unwrap() error {
	return e.merr
}

func formatViolations(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "\t* " + err.Error()
	}
	return fmt.Sprintf("invalid fleet, %d rule(s) violated:\n%s", len(errs), strings.Join(lines, "\n"))
}
