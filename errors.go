package statagg

import (
	"errors"
	"fmt"

	"github.com/hupe1980/statagg/internal/accum"
	"github.com/hupe1980/statagg/internal/merge"
	"github.com/hupe1980/statagg/internal/tree"
	"github.com/hupe1980/statagg/model"
	"github.com/hupe1980/statagg/resource"
)

var (
	// ErrConfiguration is returned (via *ConfigurationError) for invalid collector specs.
	ErrConfiguration = errors.New("invalid collector configuration")

	// ErrConfigurationMismatch is returned when values, keys, nested entries or
	// partials do not fit the shape of a collector.
	ErrConfigurationMismatch = errors.New("configuration mismatch")

	// ErrUnknownStatItem is returned when a stat item is unknown or unavailable at a level.
	ErrUnknownStatItem = model.ErrUnknownStatItem

	// ErrInvalidValue is returned for values that cannot be accumulated (NaN, ±Inf).
	ErrInvalidValue = errors.New("invalid value")

	// ErrPartialConsumed is returned when a collector is used after it was merged.
	ErrPartialConsumed = errors.New("partial consumed by merge")

	// ErrMemoryLimitExceeded is returned when retained raw values exceed the memory budget.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded

	// ErrCollectorFailed is returned by a collector after a nested add failed
	// halfway, typically on the memory budget. Such a collector accepts no more
	// values and cannot be merged; Close it.
	ErrCollectorFailed = errors.New("collector failed")

	// ErrNoPartials is returned by Merge when called without any partial.
	ErrNoPartials = errors.New("no partials to merge")
)

// ConfigurationError describes an invalid collector spec.
//
// Depth is the nesting level of the offending spec (0 = outermost).
// It matches ErrConfiguration with errors.Is.
type ConfigurationError struct {
	Depth  int
	Field  string
	Reason string
	cause  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid collector configuration at depth %d: %s: %s", e.Depth, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.cause }

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configError(depth int, field, reason string, cause error) *ConfigurationError {
	return &ConfigurationError{Depth: depth, Field: field, Reason: reason, cause: cause}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, tree.ErrFailed) {
		return fmt.Errorf("%w: %w", ErrCollectorFailed, err)
	}
	// Value errors come first: the tree wraps them in its own mismatch error.
	if errors.Is(err, accum.ErrInvalidValue) {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	if errors.Is(err, tree.ErrConsumed) {
		return fmt.Errorf("%w: %w", ErrPartialConsumed, err)
	}
	if errors.Is(err, accum.ErrMismatch) ||
		errors.Is(err, tree.ErrMismatch) ||
		errors.Is(err, merge.ErrShapeMismatch) {
		return fmt.Errorf("%w: %w", ErrConfigurationMismatch, err)
	}
	if errors.Is(err, model.ErrUnknownMode) ||
		errors.Is(err, model.ErrUnknownDomain) ||
		errors.Is(err, model.ErrUnknownLevel) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return err
}
