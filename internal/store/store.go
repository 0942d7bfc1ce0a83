package store

import "image"

// Store persists generated gradients together with the plan that produced them.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if a record doesn't exist (for Load/Delete/ImagePath)
//   - Return *ValidationError for records that fail Validate
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveImage writes the encoded image and its record.
	// The record is written last, so a listed record always has its image.
	SaveImage(record *Record, img image.Image) error

	// LoadRecord retrieves the record for the given ID.
	LoadRecord(id string) (*Record, error)

	// ListRecords returns all records, newest first.
	ListRecords() ([]Record, error)

	// DeleteImage removes the record and the image file.
	DeleteImage(id string) error

	// ImagePath returns the path of the encoded image for id.
	ImagePath(id string) (string, error)
}

// ErrNotFound is returned when a requested record does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "image not found: " + e.ID
	}
	return "image not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
