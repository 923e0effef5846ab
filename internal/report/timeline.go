package report

import (
	"encoding/json"
	"os"
	"sort"

	"loginload/internal/runner"
)

// TimeBucket aggregates the requests that started within one second.
type TimeBucket struct {
	Timestamp int64 `json:"timestamp"`
	Requests  int   `json:"requests"`
	Errors    int   `json:"errors"`
}

// Timeline buckets results per wall-clock second, oldest first.
func Timeline(results []runner.ExperimentResult) []TimeBucket {
	buckets := make(map[int64]*TimeBucket)
	for _, res := range results {
		ts := res.TimeStamp.Unix()
		b, ok := buckets[ts]
		if !ok {
			b = &TimeBucket{Timestamp: ts}
			buckets[ts] = b
		}
		b.Requests++
		if !res.Success {
			b.Errors++
		}
	}

	timeline := make([]TimeBucket, 0, len(buckets))
	for _, b := range buckets {
		timeline = append(timeline, *b)
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Timestamp < timeline[j].Timestamp
	})
	return timeline
}

// ExportTimeline writes <prefix>_timeline.json.
func ExportTimeline(results []runner.ExperimentResult, prefix string) error {
	data, err := json.MarshalIndent(Timeline(results), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(prefix+"_timeline.json", data, 0644)
}
