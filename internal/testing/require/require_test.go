package require

import (
	"errors"
	"testing"
)

type mockT struct {
	t      *testing.T
	logged string
	failed bool
}

func (m *mockT) Helper() {}

func (m *mockT) Fatal(args ...interface{}) {
	m.failed = true
	if len(args) == 1 {
		if s, ok := args[0].(string); ok {
			m.logged = s
			return
		}
	}
}

func TestCapturePanicNone(t *testing.T) {
	if err := CapturePanic(func() {}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCapturePanicError(t *testing.T) {
	err := CapturePanic(func() { panic(errors.New("boom")) })
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestCapturePanicString(t *testing.T) {
	err := CapturePanic(func() { panic("boom") })
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestEqualPass(t *testing.T) {
	m := &mockT{t: t}
	Equal(m, 1, 1)
	if m.failed {
		t.Fatal("expected no failure")
	}
}

func TestEqualFail(t *testing.T) {
	m := &mockT{t: t}
	Equal(m, 1, 2)
	if !m.failed {
		t.Fatal("expected a failure")
	}
}

func TestNilAndNotNil(t *testing.T) {
	m := &mockT{t: t}
	var p *int
	Nil(m, p)
	if m.failed {
		t.Fatal("expected nil pointer to pass Nil")
	}

	v := 5
	m = &mockT{t: t}
	NotNil(m, &v)
	if m.failed {
		t.Fatal("expected non-nil pointer to pass NotNil")
	}
}

func TestGreater(t *testing.T) {
	m := &mockT{t: t}
	Greater(m, uint64(2), uint64(1))
	if m.failed {
		t.Fatal("expected 2 > 1 to pass")
	}

	m = &mockT{t: t}
	Greater(m, uint64(1), uint64(1))
	if !m.failed {
		t.Fatal("expected 1 > 1 to fail")
	}
}

func TestContains(t *testing.T) {
	m := &mockT{t: t}
	Contains(m, "hello world", "world")
	if m.failed {
		t.Fatal("expected contains to pass")
	}

	m = &mockT{t: t}
	Contains(m, "hello world", "planet")
	if !m.failed {
		t.Fatal("expected contains to fail")
	}
}

func TestErrorIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	wrapped := errorWrap(sentinel)

	m := &mockT{t: t}
	ErrorIs(m, wrapped, sentinel)
	if m.failed {
		t.Fatal("expected wrapped error to match sentinel")
	}
}

func errorWrap(err error) error {
	return &wrapErr{err}
}

type wrapErr struct{ err error }

func (w *wrapErr) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapErr) Unwrap() error { return w.err }
