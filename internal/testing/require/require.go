// Package require is a minimal, dependency-free assertion helper in the
// style of testify/require, kept hand-rolled so the module's own tests
// never need a dependency on testify (which go.mod does not require).
package require

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TestingT is the subset of *testing.T this package needs, so tests can
// supply a mock to verify failure messages.
type TestingT interface {
	Helper()
	Fatal(args ...interface{})
}

func fail(t TestingT, message, expected string, formatWithArgs ...interface{}) {
	t.Helper()
	if expected != "" {
		message = fmt.Sprintf("%s, but was %s", expected, message)
	}
	if len(formatWithArgs) > 0 {
		if f, ok := formatWithArgs[0].(string); ok {
			message = fmt.Sprintf("%s: %s", message, fmt.Sprintf(f, formatWithArgs[1:]...))
		} else {
			message = fmt.Sprintf("%s: %v", message, formatWithArgs)
		}
	}
	t.Fatal(message)
}

// CapturePanic runs fn and converts any panic into an error, or returns
// nil if fn didn't panic.
func CapturePanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()
	fn()
	return
}

// NoError fails the test if err != nil.
func NoError(t TestingT, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err != nil {
		fail(t, fmt.Sprintf("unexpected error %v", err), "", msgAndArgs...)
	}
}

// Error fails the test if err == nil.
func Error(t TestingT, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err == nil {
		fail(t, "expected an error", "", msgAndArgs...)
	}
}

// ErrorIs fails the test unless errors.Is(err, target).
func ErrorIs(t TestingT, err, target error, msgAndArgs ...interface{}) {
	t.Helper()
	if !errors.Is(err, target) {
		fail(t, fmt.Sprintf("expected error %v to be %v", err, target), "", msgAndArgs...)
	}
}

// Equal fails the test unless expected and actual are deeply equal.
func Equal(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		fail(t, fmt.Sprintf("%#v", actual), fmt.Sprintf("expected %#v", expected), msgAndArgs...)
	}
}

// NotEqual fails the test if expected and actual are deeply equal.
func NotEqual(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if reflect.DeepEqual(expected, actual) {
		fail(t, fmt.Sprintf("expected %#v to not equal %#v", actual, expected), "", msgAndArgs...)
	}
}

// True fails the test unless v is true.
func True(t TestingT, v bool, msgAndArgs ...interface{}) {
	t.Helper()
	if !v {
		fail(t, "expected true", "", msgAndArgs...)
	}
}

// False fails the test unless v is false.
func False(t TestingT, v bool, msgAndArgs ...interface{}) {
	t.Helper()
	if v {
		fail(t, "expected false", "", msgAndArgs...)
	}
}

// Nil fails the test unless v is nil (including a nil pointer/slice/map
// held in an interface).
func Nil(t TestingT, v interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !isNil(v) {
		fail(t, fmt.Sprintf("expected nil, but was %#v", v), "", msgAndArgs...)
	}
}

// NotNil fails the test if v is nil.
func NotNil(t TestingT, v interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if isNil(v) {
		fail(t, "expected non-nil value", "", msgAndArgs...)
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

// Zero fails the test unless v is the zero value for its type.
func Zero(t TestingT, v interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !reflect.ValueOf(v).IsZero() {
		fail(t, fmt.Sprintf("expected zero value, but was %#v", v), "", msgAndArgs...)
	}
}

// Greater fails the test unless a > b.
func Greater(t TestingT, a, b uint64, msgAndArgs ...interface{}) {
	t.Helper()
	if !(a > b) {
		fail(t, fmt.Sprintf("expected %d to be greater than %d", a, b), "", msgAndArgs...)
	}
}

// Len fails the test unless v has length n.
func Len(t TestingT, v interface{}, n int, msgAndArgs ...interface{}) {
	t.Helper()
	rv := reflect.ValueOf(v)
	if rv.Len() != n {
		fail(t, fmt.Sprintf("expected length %d, but was %d", n, rv.Len()), "", msgAndArgs...)
	}
}

// Contains fails the test unless s contains substr.
func Contains(t TestingT, s, substr string, msgAndArgs ...interface{}) {
	t.Helper()
	if !strings.Contains(s, substr) {
		fail(t, fmt.Sprintf("expected %q to contain %q", s, substr), "", msgAndArgs...)
	}
}
