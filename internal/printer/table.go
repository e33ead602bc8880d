package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/dashboard"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/model"
	"github.com/slok/deployboard/internal/timeline"
)

// TablePrinter prints deployment information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintStages prints the stage catalog in display order.
func (t *TablePrinter) PrintStages(stages []model.StageDefinition) error {
	if len(stages) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ORDER\tNAME\tLABEL\tGROUP")
	for _, s := range catalog.NewIndex(stages).Stages() {
		order := s.Order
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", catalog.FormatOrder(&order), s.Name, s.Label, orDash(s.Group))
	}

	return nil
}

// PrintDefaults prints the suggested selection and options.
func (t *TablePrinter) PrintDefaults(defaults model.UIDefaults) error {
	fmt.Fprintf(t.writer, "Stages:             %s\n", orDash(strings.Join(defaults.Stages, ", ")))
	fmt.Fprintf(t.writer, "Dry run:            %s\n", formatOption(defaults.RunOptions.DryRun))
	fmt.Fprintf(t.writer, "Strict validation:  %s\n", formatOption(defaults.RunOptions.StrictValidation))
	fmt.Fprintf(t.writer, "Debug:              %s\n", formatOption(defaults.RunOptions.Debug))
	return nil
}

// PrintTasks prints tasks in a table format.
func (t *TablePrinter) PrintTasks(tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tSTATUS\tPROGRESS\tCURRENT\tUPDATED")
	for _, task := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			task.ShortID(),
			task.Status,
			formatProgress(task),
			orDash(task.CurrentStage),
			TimeAgoRaw(task.UpdatedAt),
		)
	}

	return nil
}

// PrintTask prints the detailed view of a task with its timeline and feed.
func (t *TablePrinter) PrintTask(v dashboard.TaskView) error {
	task := v.Task
	fmt.Fprintf(t.writer, "Task:       %s\n", v.Label)
	fmt.Fprintf(t.writer, "ID:         %s\n", task.ID)
	fmt.Fprintf(t.writer, "Status:     %s\n", task.Status)
	fmt.Fprintf(t.writer, "Created:    %s\n", formatRawTimestamp(task.CreatedAt))
	fmt.Fprintf(t.writer, "Updated:    %s\n", formatRawTimestamp(task.UpdatedAt))
	fmt.Fprintf(t.writer, "Progress:   %s\n", formatProgressValue(v.Progress))
	if v.Headline != "" {
		fmt.Fprintf(t.writer, "Headline:   %s\n", v.Headline)
	}
	if task.AbortRequested {
		fmt.Fprintf(t.writer, "Abort:      requested (%s)\n", orDash(task.AbortReason))
	}
	if task.Error != "" {
		fmt.Fprintf(t.writer, "Error:      %s\n", task.Error)
	}

	if len(v.Stages) > 0 {
		fmt.Fprintln(t.writer)
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ORDER\tSTAGE\tSTATUS\tSTART\tEND\tDURATION")
		for _, r := range v.Stages {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				catalog.FormatOrder(r.Order),
				r.Label,
				r.Status,
				FormatClock(r.StartedAt),
				FormatClock(r.EndedAt),
				FormatDuration(r.Duration, r.Running),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(t.writer)
	if err := t.PrintFeed(v.Feed); err != nil {
		return err
	}

	if task.Summary != nil {
		fmt.Fprintln(t.writer)
		fmt.Fprintf(t.writer, "Warnings:   %d\n", v.Issues.Warnings)
		fmt.Fprintf(t.writer, "Errors:     %d\n", v.Issues.Errors)
		if len(v.UnreachableHosts) > 0 {
			fmt.Fprintf(t.writer, "Unreachable: %s\n", strings.Join(v.UnreachableHosts, ", "))
		}
	}

	return nil
}

// PrintFeed prints a progress feed, newest entries first.
func (t *TablePrinter) PrintFeed(f feed.Feed) error {
	if f.ShowHeader {
		fmt.Fprintln(t.writer, f.Title)
	}

	if f.Empty() {
		fmt.Fprintln(t.writer, f.EmptyText)
		return nil
	}

	withTask := false
	for _, e := range f.Entries {
		if e.TaskLabel != "" {
			withTask = true
			break
		}
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	for _, e := range f.Entries {
		cols := []string{e.At.UTC().Format("15:04:05"), strings.ToUpper(string(e.Level))}
		if withTask {
			cols = append(cols, orDash(e.TaskLabel))
		}
		cols = append(cols, formatEntryStage(e), e.Message)
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func formatEntryStage(e feed.Entry) string {
	if e.Stage == nil {
		return "-"
	}
	if e.Stage.Order == nil {
		return e.Stage.Label
	}
	return catalog.FormatOrder(e.Stage.Order) + " " + e.Stage.Label
}

func formatProgress(task model.Task) string {
	return formatProgressValue(timeline.ComputeProgress(task))
}

func formatProgressValue(p timeline.Progress) string {
	if p.Total == 0 {
		return fmt.Sprintf("%d", p.Completed)
	}
	return fmt.Sprintf("%d/%d (%d%%)", p.Completed, p.Total, p.Percent)
}

func formatRawTimestamp(raw string) string {
	ts, ok := model.ParseTime(raw)
	if !ok {
		return "-"
	}
	return FormatTimestamp(ts)
}

func formatOption(v *bool) string {
	switch {
	case v == nil:
		return "-"
	case *v:
		return "yes"
	default:
		return "no"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
