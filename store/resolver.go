package store

import (
	"context"
	"sort"
	"strings"

	"github.com/mlevans/coursepilot/embeddings"
)

// DefaultResolveThreshold is the minimum cosine similarity between a query
// and a course title embedding for the match to be accepted.
const DefaultResolveThreshold = 0.6

// Resolver maps a fuzzy or partial course name to exactly one canonical
// course title using semantic similarity against the catalog's title
// embeddings. Read-only; safe for concurrent use.
type Resolver struct {
	store     *Store
	threshold float64
}

// NewResolver creates a resolver over the store's catalog. A non-positive
// threshold selects DefaultResolveThreshold.
func NewResolver(store *Store, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultResolveThreshold
	}
	return &Resolver{store: store, threshold: threshold}
}

// Threshold returns the acceptance threshold in use.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Resolve returns the canonical title best matching name, or
// ErrCourseNotFound when the catalog is empty, no title clears the
// threshold, or similarity is degenerate. An exact title match (ignoring
// case) always resolves. Ties on similarity break to the lexically smaller
// title so resolution stays deterministic.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrCourseNotFound
	}

	r.store.mu.RLock()
	titles := make([]string, 0, len(r.store.titleVectors))
	vectors := make(map[string][]float32, len(r.store.titleVectors))
	for title, vec := range r.store.titleVectors {
		titles = append(titles, title)
		vectors[title] = vec
	}
	r.store.mu.RUnlock()

	if len(titles) == 0 {
		return "", ErrCourseNotFound
	}
	sort.Strings(titles)

	for _, title := range titles {
		if strings.EqualFold(title, name) {
			return title, nil
		}
	}

	queryVector, err := oneVector(ctx, r.store, name)
	if err != nil {
		return "", err
	}

	best := ""
	bestSim := 0.0
	for _, title := range titles {
		sim := cosineSimilarity(queryVector, vectors[title])
		// Strict greater-than over lexically ordered titles keeps ties
		// on the smaller title.
		if sim > bestSim {
			best = title
			bestSim = sim
		}
	}

	if best == "" || bestSim < r.threshold {
		return "", ErrCourseNotFound
	}
	return best, nil
}

func oneVector(ctx context.Context, s *Store, text string) ([]float32, error) {
	vec, err := embeddings.EmbedOne(ctx, s.embedder, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ErrCourseNotFound
	}
	return vec, nil
}
