package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying storage implementation from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when inserting a record whose key already exists,
// such as a second result for the same race.
var ErrDuplicate = errors.New("record already exists")

// ErrInvalidTable is returned when attempting to clear a table that is not whitelisted.
var ErrInvalidTable = errors.New("invalid table name")

// DecodeError reports a stored row whose encoded payload could not be read.
// ParticipantID is zero for race results.
type DecodeError struct {
	RaceID        int
	ParticipantID int
	Err           error
}

func (e *DecodeError) Error() string {
	if e.ParticipantID != 0 {
		return fmt.Sprintf("race %d participant %d: undecodable row: %v", e.RaceID, e.ParticipantID, e.Err)
	}
	return fmt.Sprintf("race %d: undecodable row: %v", e.RaceID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
