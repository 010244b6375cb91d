package retry

import (
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != BackoffLinear {
		t.Fatalf("expected linear mode, got %s", p.Mode)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy should validate: %v", err)
	}
}

func TestNewPolicy_FallsBackOnInvalidInput(t *testing.T) {
	p := NewPolicy("bogus", -time.Second, 0, -1)
	def := DefaultPolicy()
	if p != def {
		t.Fatalf("invalid input should yield defaults, got %+v", p)
	}
}

func TestNewPolicy_CapsInitialAtMax(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Minute, time.Second, 1)
	if p.Initial != time.Second {
		t.Fatalf("initial should be capped at max, got %s", p.Initial)
	}
}

func TestDelay_Fixed(t *testing.T) {
	p := NewPolicy(BackoffFixed, 2*time.Second, 30*time.Second, 5)
	for i := 1; i <= 3; i++ {
		if got := p.Delay(i); got != 2*time.Second {
			t.Fatalf("fixed delay attempt %d = %s", i, got)
		}
	}
}

func TestDelay_Linear(t *testing.T) {
	p := NewPolicy(BackoffLinear, time.Second, 3*time.Second, 5)
	cases := map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 3 * time.Second, 10: 3 * time.Second}
	for attempt, want := range cases {
		if got := p.Delay(attempt); got != want {
			t.Fatalf("linear delay attempt %d = %s, want %s", attempt, got, want)
		}
	}
}

func TestDelay_Exponential(t *testing.T) {
	p := NewPolicy(BackoffExponential, time.Second, 5*time.Second, 5)
	cases := map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second, 4: 5 * time.Second}
	for attempt, want := range cases {
		if got := p.Delay(attempt); got != want {
			t.Fatalf("exponential delay attempt %d = %s, want %s", attempt, got, want)
		}
	}
}

func TestDelay_ZeroForNonPositiveAttempt(t *testing.T) {
	p := DefaultPolicy()
	if p.Delay(0) != 0 || p.Delay(-1) != 0 {
		t.Fatal("non-positive attempts should have zero delay")
	}
}
