package scenario

import (
	"fmt"

	errs "dbsmoke/internal/errors"
)

// Equals fails the scenario when got differs from want.
func Equals(what, got, want string) error {
	if got == want {
		return nil
	}
	return errs.NewAssertionError(
		fmt.Sprintf("Assertion failed: %s", what),
		fmt.Sprintf("expected %q, got %q", want, got),
		"Inspect the container logs to see how the image initialized",
		fmt.Errorf("%s: expected %q, got %q", what, want, got),
	)
}

// NotEquals fails the scenario when got matches the forbidden value.
func NotEquals(what, got, forbidden string) error {
	if got != forbidden {
		return nil
	}
	return errs.NewAssertionError(
		fmt.Sprintf("Assertion failed: %s", what),
		fmt.Sprintf("value must differ from %q but matched it", forbidden),
		"Inspect the container logs to see how the image initialized",
		fmt.Errorf("%s: got forbidden value %q", what, forbidden),
	)
}

// NonEmpty fails the scenario when value is empty.
func NonEmpty(what, value string) error {
	if value != "" {
		return nil
	}
	return errs.NewAssertionError(
		fmt.Sprintf("Assertion failed: %s", what),
		"expected a non-empty value",
		"Inspect the container logs to see how the image initialized",
		fmt.Errorf("%s is empty", what),
	)
}

// MustFail inverts an operation outcome: the scenario fails when the
// operation unexpectedly succeeded. A nil return means opErr was non-nil,
// which is what the scenario wanted.
func MustFail(what string, opErr error) error {
	if opErr != nil {
		return nil
	}
	return errs.NewAssertionError(
		fmt.Sprintf("Assertion failed: %s", what),
		"the operation succeeded but was expected to be rejected",
		"Check that the restriction under test is actually configured",
		fmt.Errorf("%s succeeded but was expected to fail", what),
	)
}
