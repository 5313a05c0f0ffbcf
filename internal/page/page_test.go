package page

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	p := New(context.Background(), 0, 0)
	if p.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", p.timeout, DefaultTimeout)
	}
	if p.navTimeout != DefaultNavTimeout {
		t.Errorf("navTimeout = %v, want %v", p.navTimeout, DefaultNavTimeout)
	}
}

func TestNewExplicitTimeouts(t *testing.T) {
	p := New(context.Background(), 5*time.Second, 20*time.Second)
	if p.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", p.timeout)
	}
	if p.navTimeout != 20*time.Second {
		t.Errorf("navTimeout = %v, want 20s", p.navTimeout)
	}
}

func TestWrapWaitTimeout(t *testing.T) {
	p := New(context.Background(), time.Second, time.Second)
	l := ByCSS(".hero-banner")

	err := p.wrapWait(context.DeadlineExceeded, l)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("deadline exceeded should wrap to ErrTimeout, got %v", err)
	}
	if got := err.Error(); got != "timed out waiting for element: css:.hero-banner" {
		t.Errorf("error = %q", got)
	}
}

func TestWrapWaitOtherError(t *testing.T) {
	p := New(context.Background(), time.Second, time.Second)
	l := ByID("site-search")

	cause := errors.New("node detached")
	err := p.wrapWait(cause, l)
	if errors.Is(err, ErrTimeout) {
		t.Error("non-timeout error should not map to ErrTimeout")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should remain unwrappable")
	}
}
