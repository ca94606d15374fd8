package vectorfile

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/folder"
	"github.com/custodia-labs/ragcore/internal/logger"
)

const (
	scenarioBonus = 0.1
	usageBonus    = 0.05
	daysPerYear   = 365.0
	defaultTopK   = 5
)

// usageKinds are the building uses that earn usageBonus when both the
// folder filter and the entry's usage name them.
var usageKinds = []string{"판매시설", "숙박시설", "다중주택", "단독주택"}

// scored is a candidate that passed the similarity threshold.
type scored struct {
	idx        int
	similarity float64
	weighted   float64
}

// Retrieve ranks entries against query.
//
// Entries are first narrowed by folder and filename prefix, then scored by
// cosine similarity in parallel. Candidates below the threshold are dropped;
// the rest receive folder and usage bonuses, recency and source weights, and
// are returned best first. Ties keep insertion order.
func (s *Store) Retrieve(ctx context.Context, query []float32, opts domain.RetrieveOptions) ([]domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	logger.Section("Vector Retrieve")
	defer logger.Timed("vector retrieve")()

	cfg := s.settings
	topK := opts.TopK
	if topK <= 0 {
		topK = cfg.TopK
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	threshold := cfg.SimilarityThreshold
	if opts.SimilarityThreshold != nil {
		threshold = *opts.SimilarityThreshold
	}

	if len(s.entries) == 0 {
		return nil, nil
	}

	candidates := s.filter(opts.FolderFilter, opts.FilenamePrefixes)
	if len(candidates) == 0 {
		logger.Warn("no entries left after filtering (folder %q, prefixes %v)", opts.FolderFilter, opts.FilenamePrefixes)
		return nil, nil
	}
	logger.Debug("filtered to %d/%d entries", len(candidates), len(s.entries))

	queryNorm := vectorNorm(query)
	if queryNorm == 0 {
		logger.Debug("query embedding has zero norm")
		return nil, nil
	}
	if s.dim != 0 && len(query) != s.dim {
		logger.Warn("query dimension %d does not match store dimension %d", len(query), s.dim)
		return nil, nil
	}

	passed, err := s.similarities(ctx, query, queryNorm, candidates, threshold)
	if err != nil {
		return nil, err
	}
	if len(passed) == 0 {
		logger.Debug("no entries above similarity threshold %.3f", threshold)
		return nil, nil
	}

	now := s.now()
	preferred := make(map[string]struct{}, len(opts.PreferredSources))
	for _, src := range opts.PreferredSources {
		preferred[src] = struct{}{}
	}

	for i := range passed {
		meta := s.entries[passed[i].idx].Metadata
		passed[i].similarity += bonus(meta, opts.FolderFilter)
		passed[i].weighted = weigh(passed[i].similarity, meta, cfg, preferred, now)
	}

	sort.SliceStable(passed, func(i, j int) bool {
		return passed[i].weighted > passed[j].weighted
	})

	logger.Debug("%d entries passed, best %.4f (weighted %.4f)",
		len(passed), passed[0].similarity, passed[0].weighted)

	if len(passed) > topK {
		passed = passed[:topK]
	}

	results := make([]domain.Result, len(passed))
	for i, p := range passed {
		e := s.entries[p.idx]
		results[i] = domain.Result{
			Content:       e.Content,
			Metadata:      e.Metadata.Map(),
			Score:         p.similarity,
			WeightedScore: p.weighted,
		}
	}
	return results, nil
}

// filter returns indexes of entries matching the folder filter and any of
// the filename prefixes. Caller holds the read lock.
func (s *Store) filter(folderFilter string, prefixes []string) []int {
	want := folder.Normalize(folderFilter)

	out := make([]int, 0, len(s.entries))
	for i, e := range s.entries {
		if want != "" {
			if e.Metadata.Folder == "" || folder.Normalize(e.Metadata.Folder) != want {
				continue
			}
		}
		if len(prefixes) > 0 && !hasAnyPrefix(e.Metadata.Filename, prefixes) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func hasAnyPrefix(name string, prefixes []string) bool {
	if name == "" {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// similarities scores candidates across runtime.NumCPU() workers.
// Results keep candidate order. Caller holds the read lock.
func (s *Store) similarities(ctx context.Context, query []float32, queryNorm float64, candidates []int, threshold float64) ([]scored, error) {
	workers := runtime.NumCPU()
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 1 {
		workers = 1
	}
	per := (len(candidates) + workers - 1) / workers

	parts := make([][]scored, workers)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		lo := w * per
		hi := lo + per
		if hi > len(candidates) {
			hi = len(candidates)
		}
		if lo >= hi {
			continue
		}

		w := w
		g.Go(func() error {
			local := make([]scored, 0, hi-lo)
			for _, idx := range candidates[lo:hi] {
				if err := gctx.Err(); err != nil {
					return err
				}
				e := &s.entries[idx]
				if e.norm == 0 || len(e.Embedding) != len(query) {
					continue
				}
				var dot float64
				for j, q := range query {
					dot += float64(q) * float64(e.Embedding[j])
				}
				sim := dot / (queryNorm * e.norm)
				if math.IsNaN(sim) || math.IsInf(sim, 0) || sim < threshold {
					continue
				}
				local = append(local, scored{idx: idx, similarity: sim})
			}
			parts[w] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	var out []scored
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// bonus rewards entries whose scenario (or folder) is the filtered folder,
// and whose usage names the same building use as the filter.
func bonus(meta domain.EntryMetadata, folderFilter string) float64 {
	if strings.TrimSpace(folderFilter) == "" {
		return 0
	}

	var b float64
	label := meta.Scenario
	if label == "" {
		label = meta.Folder
	}
	if label != "" && folder.Equal(label, folderFilter) {
		b += scenarioBonus
	}

	usage := meta.Usage
	if usage == "" {
		if raw, ok := meta.Extra[domain.MetaUsage]; ok && raw != nil {
			usage = fmt.Sprint(raw)
		}
	}
	if usage != "" {
		for _, kind := range usageKinds {
			if folder.Contains(folderFilter, kind) && folder.Contains(usage, kind) {
				b += usageBonus
				break
			}
		}
	}
	return b
}

// weigh combines similarity, recency and source preference.
func weigh(similarity float64, meta domain.EntryMetadata, cfg domain.RetrievalSettings, preferred map[string]struct{}, now time.Time) float64 {
	w := similarity * cfg.SimilarityWeight

	if cfg.RecencyWeight > 0 {
		if created, ok := meta.CreatedTime(); ok {
			days := math.Floor(now.Sub(created).Hours() / 24)
			w += math.Max(0, 1-days/daysPerYear) * cfg.RecencyWeight
		}
	}

	if cfg.SourceWeight > 0 && len(preferred) > 0 {
		if _, ok := preferred[meta.Source]; ok {
			w += cfg.SourceWeight
		}
	}
	return w
}
