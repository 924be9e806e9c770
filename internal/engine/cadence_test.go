package engine

import (
	"testing"
	"time"
)

func TestStepDelaySelection(t *testing.T) {
	c := DefaultCadenceConfig()

	if got := c.StepDelay(false, RegimeHeartbeat); got != 14*time.Second {
		t.Fatalf("heart-rate regime delay: got %v", got)
	}
	if got := c.StepDelay(false, RegimeCrying); got != 4*time.Second {
		t.Fatalf("cry regime delay: got %v", got)
	}
	// A boundary hit overrides the regime.
	if got := c.StepDelay(true, RegimeHeartbeat); got != 4*time.Second {
		t.Fatalf("wall-hit delay: got %v", got)
	}
	if got := c.StepDelay(true, RegimeCrying); got != 4*time.Second {
		t.Fatalf("wall-hit delay in cry regime: got %v", got)
	}
}
