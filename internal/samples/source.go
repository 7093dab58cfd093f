package samples

import (
	"cmp"
	"context"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/tryonware/stitch/internal/tryon"
	"github.com/tryonware/stitch/pkg/imaging"
)

// PairRef is an unresolved pairing: locations of the person and cloth
// payloads plus the stable pair key. Listing is cheap; payloads are fetched
// and decoded one pair at a time during Resolve.
type PairRef struct {
	Key    string
	Cohort string
	Person string
	Cloth  string
}

// Source produces a lazy, finite, restartable sequence of sample pairs.
// List is deterministic for an unchanged backing store (stable sort by pair
// key) so partial runs can be resumed; Resolve surfaces ErrDecodeFailed or
// ErrTooLarge for skippable pairs.
type Source interface {
	List(ctx context.Context) ([]PairRef, error)
	Resolve(ctx context.Context, ref PairRef) (*tryon.SamplePair, error)
}

// sortRefs orders refs by cohort, then by pair stem: numerically when both
// stems parse as integers, lexicographically otherwise.
func sortRefs(refs []PairRef) {
	slices.SortFunc(refs, func(a, b PairRef) int {
		if c := cmp.Compare(a.Cohort, b.Cohort); c != 0 {
			return c
		}
		return compareStems(stem(a.Key), stem(b.Key))
	})
}

func compareStems(a, b string) int {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return cmp.Compare(an, bn)
	}
	return cmp.Compare(a, b)
}

func stem(key string) string {
	base := path.Base(key)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

// decodePair normalizes both payloads, enforcing the size cap before decode.
func decodePair(ref PairRef, person, cloth []byte, maxBytes int64) (*tryon.SamplePair, error) {
	if int64(len(person)) > maxBytes || int64(len(cloth)) > maxBytes {
		return nil, fmt.Errorf("%w: pair %s", ErrTooLarge, ref.Key)
	}

	personPNG, err := imaging.Normalize(person)
	if err != nil {
		return nil, fmt.Errorf("%w: person %s: %w", ErrDecodeFailed, ref.Person, err)
	}

	clothPNG, err := imaging.Normalize(cloth)
	if err != nil {
		return nil, fmt.Errorf("%w: cloth %s: %w", ErrDecodeFailed, ref.Cloth, err)
	}

	return &tryon.SamplePair{
		Key:    ref.Key,
		Cohort: ref.Cohort,
		Person: tryon.Image{Name: stem(ref.Person), Data: personPNG},
		Cloth:  tryon.Image{Name: stem(ref.Cloth), Data: clothPNG},
	}, nil
}
