package timeline

import (
	"cmp"
	"slices"
	"time"

	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/model"
)

// StageRow is a rendered stage of a task timeline.
type StageRow struct {
	Name  string
	Label string
	// Order is nil when it can't be derived.
	Order *int
	// Extra is true for stages that only appear on the history.
	Extra     bool
	Status    model.StageStatus
	StartedAt string
	EndedAt   string
	Duration  *time.Duration
	// Running is true when the stage has started and has no duration yet.
	Running bool
}

// Build returns the timeline rows of a task: the requested stages in display
// order followed by the stages only present on the history.
func Build(task model.Task, index *catalog.Index) []StageRow {
	if index == nil {
		index = catalog.NewIndex(nil)
	}

	history := sortedHistory(task.StageHistory)

	grouped := map[string][]model.StageEvent{}
	seen := []string{}
	for _, e := range history {
		if _, ok := grouped[e.Stage]; !ok {
			seen = append(seen, e.Stage)
		}
		grouped[e.Stage] = append(grouped[e.Stage], e)
	}

	requested := index.SortNames(dedup(task.Stages))
	isRequested := make(map[string]struct{}, len(requested))
	for _, s := range requested {
		isRequested[s] = struct{}{}
	}

	rows := make([]StageRow, 0, len(requested)+len(seen))
	for i, s := range requested {
		order := i + 1
		rows = append(rows, buildRow(s, task, grouped[s], index, &order, false))
	}
	for _, s := range seen {
		if _, ok := isRequested[s]; ok {
			continue
		}
		rows = append(rows, buildRow(s, task, grouped[s], index, nil, true))
	}

	return rows
}

func buildRow(stage string, task model.Task, events []model.StageEvent, index *catalog.Index, fallbackOrder *int, extra bool) StageRow {
	row := StageRow{
		Name:   stage,
		Label:  stage,
		Order:  fallbackOrder,
		Extra:  extra,
		Status: ResolveStatus(stage, task, events),
	}

	if m := index.Meta(stage); m != nil {
		row.Label = m.Label
		if m.Order != nil {
			row.Order = m.Order
		}
	}

	start := firstStart(events)
	end := lastTerminal(events)
	if start != nil {
		row.StartedAt = start.At
	}
	if end != nil {
		row.EndedAt = end.At
	}
	row.Duration = ComputeDuration(start, end)
	row.Running = row.Duration == nil && start != nil && row.Status == model.StageStatusRunning

	return row
}

// sortedHistory returns the events with a stage sorted by time, events without a
// valid time go first.
func sortedHistory(events []model.StageEvent) []model.StageEvent {
	res := make([]model.StageEvent, 0, len(events))
	for _, e := range events {
		if e.Stage == "" {
			continue
		}
		res = append(res, e)
	}

	slices.SortStableFunc(res, func(a, b model.StageEvent) int {
		return cmp.Compare(unixMilli(a.At), unixMilli(b.At))
	})

	return res
}

func unixMilli(s string) int64 {
	t, ok := model.ParseTime(s)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

func firstStart(events []model.StageEvent) *model.StageEvent {
	for i := range events {
		if events[i].Event == model.EventStart {
			return &events[i]
		}
	}
	return nil
}

func lastTerminal(events []model.StageEvent) *model.StageEvent {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Event.Terminal() {
			return &events[i]
		}
	}
	return nil
}

func dedup(names []string) []string {
	res := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		res = append(res, n)
	}
	return res
}
