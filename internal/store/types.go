package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cwbudde/gradientgen/internal/gradient"
	"github.com/cwbudde/gradientgen/internal/imageio"
	"github.com/google/uuid"
)

// Record describes one generated gradient.
// The plan is kept as raw JSON so records stay readable when plan types evolve.
type Record struct {
	// ID is the unique identifier, also the directory name on disk
	ID string `json:"id"`

	// Algorithm is the gradient algorithm name (linear, radial, channel_strength)
	Algorithm string `json:"algorithm"`

	// Plan holds the drawn parameters: origins, palette, switch points, divisors
	Plan json.RawMessage `json:"plan"`

	Size   int    `json:"size"`
	Seed   int64  `json:"seed"`
	Format string `json:"format"`

	// Elapsed is the render time
	Elapsed time.Duration `json:"elapsed"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewRecord builds a record for a rendered plan with a fresh ID.
func NewRecord(plan gradient.Plan, size int, seed int64, format imageio.Format, elapsed time.Duration) (*Record, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize plan: %w", err)
	}

	return &Record{
		ID:        uuid.New().String(),
		Algorithm: plan.Algorithm().String(),
		Plan:      data,
		Size:      size,
		Seed:      seed,
		Format:    string(format),
		Elapsed:   elapsed,
		CreatedAt: time.Now(),
	}, nil
}

// Validate checks if the record has valid data.
func (r *Record) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return &ValidationError{Field: "ID", Reason: "must be a UUID"}
	}
	if _, err := gradient.ParseAlgorithm(r.Algorithm); err != nil {
		return &ValidationError{Field: "Algorithm", Reason: fmt.Sprintf("unknown algorithm %q", r.Algorithm)}
	}
	if len(r.Plan) == 0 {
		return &ValidationError{Field: "Plan", Reason: "cannot be empty"}
	}
	if !json.Valid(r.Plan) {
		return &ValidationError{Field: "Plan", Reason: "must be valid JSON"}
	}
	if r.Size < 2 {
		return &ValidationError{Field: "Size", Reason: "must be at least 2"}
	}
	if _, err := imageio.ParseFormat(r.Format); err != nil || r.Format == "" {
		return &ValidationError{Field: "Format", Reason: fmt.Sprintf("unsupported format %q", r.Format)}
	}
	if r.Elapsed < 0 {
		return &ValidationError{Field: "Elapsed", Reason: "cannot be negative"}
	}
	if r.CreatedAt.IsZero() {
		return &ValidationError{Field: "CreatedAt", Reason: "cannot be zero"}
	}
	return nil
}

// ImageFormat returns the parsed format of the stored image.
func (r *Record) ImageFormat() imageio.Format {
	f, err := imageio.ParseFormat(r.Format)
	if err != nil {
		return imageio.FormatPNG
	}
	return f
}

// ValidationError represents a record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
