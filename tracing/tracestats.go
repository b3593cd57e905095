package tracing

import (
	"cmp"
	"context"
	"slices"

	"github.com/sarchlab/ringdma/datarecording"
)

// TaskStats summarizes the tasks of one kind at one location.
type TaskStats struct {
	Kind     string
	Location string
	Count    int
	Total    float64
	Max      float64
}

// Average returns the mean task duration.
func (s TaskStats) Average() float64 {
	if s.Count == 0 {
		return 0
	}

	return s.Total / float64(s.Count)
}

// ReadTaskStats groups the recorded tasks by kind and location. An empty
// kind reads every task. The result is ordered by kind, then location.
func ReadTaskStats(
	ctx context.Context,
	reader datarecording.DataReader,
	kind string,
) ([]TaskStats, error) {
	reader.MapTable(TraceTable, TaskRecord{})

	params := datarecording.QueryParams{OrderBy: "StartTime"}
	if kind != "" {
		params.Where = "Kind = ?"
		params.Args = []any{kind}
	}

	rows, _, err := reader.Query(ctx, TraceTable, params)
	if err != nil {
		return nil, err
	}

	type key struct{ kind, location string }

	byKey := make(map[key]*TaskStats)
	for _, row := range rows {
		rec := row.(*TaskRecord)
		k := key{rec.Kind, rec.Location}

		s, ok := byKey[k]
		if !ok {
			s = &TaskStats{Kind: rec.Kind, Location: rec.Location}
			byKey[k] = s
		}

		d := rec.EndTime - rec.StartTime
		s.Count++
		s.Total += d
		s.Max = max(s.Max, d)
	}

	stats := make([]TaskStats, 0, len(byKey))
	for _, s := range byKey {
		stats = append(stats, *s)
	}

	slices.SortFunc(stats, func(a, b TaskStats) int {
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}

		return cmp.Compare(a.Location, b.Location)
	})

	return stats, nil
}
