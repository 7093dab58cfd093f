package prompts_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tryonware/stitch/internal/prompts"
	"github.com/tryonware/stitch/internal/tryon"
)

func TestComposeEvaluateSystem(t *testing.T) {
	system := prompts.ComposeEvaluateSystem()

	// every constraint appears in the numbered checklist, in order
	lastIdx := -1
	for i, c := range tryon.Constraints() {
		entry := fmt.Sprintf("%d. %s", i+1, c)
		idx := strings.Index(system, entry)
		if idx == -1 {
			t.Errorf("checklist missing %q", entry)
			continue
		}
		if idx < lastIdx {
			t.Errorf("checklist entry %q out of order", entry)
		}
		lastIdx = idx
	}

	if !strings.Contains(system, `"checks"`) {
		t.Error("system prompt missing response spec")
	}
	if !strings.Contains(system, `"feedback"`) {
		t.Error("system prompt missing feedback field spec")
	}
}

func TestComposeEvaluateUser(t *testing.T) {
	t.Run("first iteration uses three-image form", func(t *testing.T) {
		user := prompts.ComposeEvaluateUser(1, 1)

		if !strings.Contains(user, "iteration 1") {
			t.Errorf("user prompt missing iteration: %q", user)
		}
		if !strings.Contains(user, "exactly 3 images") {
			t.Errorf("user prompt = %q, want three-image form", user)
		}
	})

	t.Run("later iterations use history form", func(t *testing.T) {
		user := prompts.ComposeEvaluateUser(3, 3)

		if !strings.Contains(user, "iteration 3") {
			t.Errorf("user prompt missing iteration: %q", user)
		}
		// person + cloth + 3 candidates
		if !strings.Contains(user, "5 images in total") {
			t.Errorf("user prompt = %q, want 5 images total", user)
		}
		if !strings.Contains(user, "Image 5: the LATEST") {
			t.Errorf("user prompt = %q, want latest marker on image 5", user)
		}
	})
}

func TestSamplerDeterministic(t *testing.T) {
	first := prompts.NewSampler(7)
	second := prompts.NewSampler(7)

	for i := range 10 {
		a := first.SampleInstruction()
		b := second.SampleInstruction()
		if a != b {
			t.Fatalf("draw %d diverged: %q vs %q", i, a, b)
		}
	}
}

func TestSamplerInstructionShape(t *testing.T) {
	s := prompts.NewSampler(1)

	for range 20 {
		instruction := s.SampleInstruction()
		if !strings.HasPrefix(instruction, "A ") {
			t.Errorf("instruction = %q, want article prefix", instruction)
		}
		if !strings.Contains(instruction, "image of a person wearing the provided cloth") {
			t.Errorf("instruction = %q, missing fixed frame", instruction)
		}
	}
}

func TestSamplerSeedsDiffer(t *testing.T) {
	a := prompts.NewSampler(1)
	b := prompts.NewSampler(999)

	var diverged bool
	for range 20 {
		if a.SampleInstruction() != b.SampleInstruction() {
			diverged = true
			break
		}
	}
	if !diverged {
		t.Error("different seeds produced identical instruction sequences")
	}
}

func TestNeutralInstruction(t *testing.T) {
	if !strings.Contains(prompts.NeutralInstruction, "photorealistic") {
		t.Errorf("NeutralInstruction = %q", prompts.NeutralInstruction)
	}
}
