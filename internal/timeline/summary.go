package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/model"
)

// Progress is the completion digest of a task.
type Progress struct {
	Completed int
	// Total is 0 when the task has no stages.
	Total   int
	Percent int
}

// ComputeProgress returns the task progress. The declared total is used when set,
// otherwise the number of requested stages.
func ComputeProgress(task model.Task) Progress {
	completed := len(dedup(task.CompletedStages))

	total := task.TotalStages
	if total <= 0 {
		total = len(task.Stages)
	}
	if total <= 0 {
		return Progress{Completed: completed}
	}

	completed = min(completed, total)
	return Progress{
		Completed: completed,
		Total:     total,
		Percent:   int(math.Round(float64(completed) / float64(total) * 100)),
	}
}

// Headline returns a one line description of where the task is.
func Headline(task model.Task, index *catalog.Index) string {
	label := func(stage string) string {
		if index == nil {
			return stage
		}
		return index.Label(stage)
	}

	switch task.Status {
	case model.TaskStatusRunning:
		if task.CurrentStage == "" {
			return ""
		}
		return fmt.Sprintf("Current stage: %s", label(task.CurrentStage))
	case model.TaskStatusDone:
		return "All stages completed"
	case model.TaskStatusFailed:
		stage := "unknown stage"
		if task.CurrentStage != "" {
			stage = label(task.CurrentStage)
		}
		return fmt.Sprintf("Failed on: %s", stage)
	case model.TaskStatusAborted:
		return "Task aborted"
	}

	return ""
}

// IssueCounts are the warnings and errors reported on a task summary.
type IssueCounts struct {
	Warnings int
	Errors   int
}

// CountIssues adds the warnings and errors of the summary buckets: `report`,
// the root and `totals`. A bucket counts as its length, its number or its keys.
func CountIssues(summary map[string]any) IssueCounts {
	if summary == nil {
		return IssueCounts{}
	}

	report, _ := summary["report"].(map[string]any)
	totals, _ := summary["totals"].(map[string]any)

	var counts IssueCounts
	for _, bucket := range []map[string]any{report, summary, totals} {
		if bucket == nil {
			continue
		}
		counts.Warnings += countItems(bucket["warnings"])
		counts.Errors += countItems(bucket["errors"])
	}

	return counts
}

func countItems(v any) int {
	switch vv := v.(type) {
	case []any:
		return len(vv)
	case map[string]any:
		return len(vv)
	case float64:
		if math.IsNaN(vv) || math.IsInf(vv, 0) {
			return 0
		}
		return int(vv)
	case int:
		return vv
	}
	return 0
}

// UnreachableHosts returns the sorted hosts of the summary network report whose
// `-1` probe is false.
func UnreachableHosts(summary map[string]any) []string {
	network, ok := summary["network"].(map[string]any)
	if !ok {
		return nil
	}

	hosts := []string{}
	for host, r := range network {
		report, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if reachable, ok := report["-1"].(bool); ok && !reachable {
			hosts = append(hosts, host)
		}
	}
	sort.Strings(hosts)

	return hosts
}
