package prompts

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// NeutralInstruction is the fallback attempt-1 instruction when sampling is
// disabled or a dictionary cannot produce a term.
const NeutralInstruction = "A photorealistic image of a person wearing the provided cloth, high quality, 8k"

// Keyword is one weighted dictionary entry.
type Keyword struct {
	Term   string
	Weight float64
}

// Dictionary is a named weighted keyword pool.
type Dictionary struct {
	Name     string
	Keywords []Keyword
}

// instruction dictionaries, sampled in order into the default instruction.
var instructionDictionaries = []Dictionary{
	{
		Name: "rendering",
		Keywords: []Keyword{
			{Term: "photorealistic", Weight: 0.6},
			{Term: "studio photograph", Weight: 0.25},
			{Term: "editorial fashion photograph", Weight: 0.15},
		},
	},
	{
		Name: "fit",
		Keywords: []Keyword{
			{Term: "naturally fitted", Weight: 0.5},
			{Term: "draping realistically", Weight: 0.3},
			{Term: "tailored to the body", Weight: 0.2},
		},
	},
	{
		Name: "quality",
		Keywords: []Keyword{
			{Term: "high quality, 8k", Weight: 0.5},
			{Term: "sharp focus, detailed fabric", Weight: 0.3},
			{Term: "professional lighting", Weight: 0.2},
		},
	},
}

// Sampler draws default generation instructions from weighted keyword
// dictionaries. A fixed seed yields a reproducible instruction sequence, so
// resumed runs compose the same prompts for the same pair ordering.
type Sampler struct {
	rng  *rand.Rand
	dict []Dictionary
}

// NewSampler creates a deterministic sampler over the built-in dictionaries.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{
		rng:  rand.New(rand.NewPCG(seed, 0)),
		dict: instructionDictionaries,
	}
}

// SampleInstruction composes a default generation instruction from one
// weighted draw per dictionary.
func (s *Sampler) SampleInstruction() string {
	terms := make([]string, 0, len(s.dict))
	for _, d := range s.dict {
		term, err := s.sample(d)
		if err != nil {
			return NeutralInstruction
		}
		terms = append(terms, term)
	}

	return fmt.Sprintf(
		"A %s image of a person wearing the provided cloth, %s, %s",
		terms[0], terms[1], strings.Join(terms[2:], ", "),
	)
}

func (s *Sampler) sample(d Dictionary) (string, error) {
	if len(d.Keywords) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyDictionary, d.Name)
	}

	var total float64
	for _, k := range d.Keywords {
		total += k.Weight
	}

	r := s.rng.Float64() * total
	var upto float64
	for _, k := range d.Keywords {
		upto += k.Weight
		if upto >= r {
			return k.Term, nil
		}
	}

	return d.Keywords[len(d.Keywords)-1].Term, nil
}
