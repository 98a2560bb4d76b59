// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// DefaultLimit is the result budget when a caller does not set one.
const DefaultLimit = 5

// SearchRequest holds the parameters of one aggregated search.
type SearchRequest struct {
	Query     string
	Sources   []string
	StartDate string
	EndDate   string
	Limit     int
	Sorts     []types.SortSpec
}

// ErrorObserver receives one call per failed source. The instrumented tool
// invoker uses it to count source errors.
type ErrorObserver interface {
	SourceError(ctx context.Context, source string, code types.ErrorCode)
}

// Aggregator fans a query out to the selected sources, isolates per-source
// failures, and merges the results into one date-ordered list.
type Aggregator struct {
	// Sources maps a source identifier to its adapter. Selected names
	// missing from the map yield an INTERNAL error entry.
	Sources map[string]Source

	Logger   *zap.Logger
	Observer ErrorObserver
}

// NewAggregator returns an Aggregator over the given sources.
func NewAggregator(logger *zap.Logger, sources ...Source) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := make(map[string]Source, len(sources))
	for _, s := range sources {
		m[s.Name()] = s
	}
	return &Aggregator{Sources: m, Logger: logger}
}

// Search runs req against every selected source concurrently. The envelope
// is ok even when every source failed; each failure appears as a result
// entry carrying only source, error, and meta. An empty query fails with
// BAD_INPUT before any upstream call.
func (a *Aggregator) Search(ctx context.Context, req SearchRequest) types.Envelope {
	start := time.Now()
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return types.Failure(types.NewError(types.CodeBadInput, "query required"), a.meta(start))
	}

	selected := ResolveSources(req.Sources)
	q := Query{
		Text:      req.Query,
		Limit:     max(req.Limit, 1),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Sorts:     req.Sorts,
	}

	// One slot per selected source keeps the merge order equal to the
	// selection order regardless of completion order.
	slots := make([][]types.SearchItem, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range selected {
		g.Go(func() error {
			slots[i] = a.fetch(gctx, name, q)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return types.Failure(&types.ErrorInfo{
			Code:    types.CodeUpstreamError,
			Message: "search cancelled",
			Detail:  ctx.Err().Error(),
		}, a.meta(start))
	}

	var merged []types.SearchItem
	for _, items := range slots {
		merged = append(merged, items...)
	}
	sortByDate(merged)

	return types.Success(types.SearchData{
		Query:   req.Query,
		Sources: selected,
		Results: truncate(merged, req.Limit),
	}, a.meta(start))
}

func (a *Aggregator) fetch(ctx context.Context, name string, q Query) []types.SearchItem {
	src, ok := a.Sources[name]
	if !ok {
		return []types.SearchItem{a.failed(ctx, name, errors.New("source "+name+" not configured"))}
	}
	items, err := src.Fetch(ctx, q)
	if err != nil {
		return []types.SearchItem{a.failed(ctx, name, err)}
	}
	for i := range items {
		items[i].Source = name
	}
	return items
}

func (a *Aggregator) failed(ctx context.Context, name string, err error) types.SearchItem {
	info, meta := Classify(err)
	a.logger().Warn("source failed",
		zap.String("source", name),
		zap.String("code", string(info.Code)),
		zap.Error(err))
	if a.Observer != nil {
		a.Observer.SourceError(ctx, name, info.Code)
	}
	return types.SearchItem{Source: name, Error: info, Meta: meta}
}

func (a *Aggregator) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *Aggregator) meta(start time.Time) types.Meta {
	m := types.StampedMeta(start)
	m.Source = "gov_policy_search"
	return m
}

// dateLayouts are tried in order when parsing an item date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sortByDate orders items newest first. Items whose date is empty or
// unparseable sort after all dated items. The sort is stable.
func sortByDate(items []types.SearchItem) {
	type keyed struct {
		t  time.Time
		ok bool
	}
	keys := make([]keyed, len(items))
	for i, it := range items {
		t, ok := parseDate(it.Date)
		keys[i] = keyed{t, ok}
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		ki, kj := keys[idx[i]], keys[idx[j]]
		if ki.ok != kj.ok {
			return ki.ok
		}
		return ki.ok && ki.t.After(kj.t)
	})

	sorted := make([]types.SearchItem, len(items))
	for i, k := range idx {
		sorted[i] = items[k]
	}
	copy(items, sorted)
}

// truncate returns at most limit items. A limit of zero or less yields an
// empty, non-nil slice.
func truncate(items []types.SearchItem, limit int) []types.SearchItem {
	if limit <= 0 {
		return []types.SearchItem{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	if items == nil {
		return []types.SearchItem{}
	}
	return items
}
