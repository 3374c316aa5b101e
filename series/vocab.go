package series

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nsoti/resource-demand-prediction-ml-model/usagedataset"
)

var ErrUnknownCategory = errors.New("category not present in vocabulary")

// Vocab maps the static categorical values of the dataset to stable integer
// encodings. Indices are assigned in sorted value order, so the same input
// always yields the same encoding.
type Vocab struct {
	Types     map[string]int
	Locations map[string]int
}

// NewVocab builds a vocabulary covering every resource metadata value given.
func NewVocab(metas []usagedataset.ResourceMetadata) *Vocab {
	types := make(map[string]struct{})
	locs := make(map[string]struct{})
	for _, m := range metas {
		types[m.ResourceType] = struct{}{}
		locs[m.Location] = struct{}{}
	}
	return &Vocab{
		Types:     index(types),
		Locations: index(locs),
	}
}

func index(set map[string]struct{}) map[string]int {
	vals := make([]string, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	idx := make(map[string]int, len(vals))
	for i, v := range vals {
		idx[v] = i
	}
	return idx
}

// Encode returns the integer encoding of a resource's static categorical
// features, ordered resource type first then location.
func (v *Vocab) Encode(meta usagedataset.ResourceMetadata) ([]int, error) {
	tIdx, ok := v.Types[meta.ResourceType]
	if !ok {
		return nil, fmt.Errorf("resource type %q, %w", meta.ResourceType, ErrUnknownCategory)
	}
	lIdx, ok := v.Locations[meta.Location]
	if !ok {
		return nil, fmt.Errorf("location %q, %w", meta.Location, ErrUnknownCategory)
	}
	return []int{tIdx, lIdx}, nil
}
