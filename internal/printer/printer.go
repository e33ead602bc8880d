package printer

import (
	"github.com/slok/deployboard/internal/dashboard"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/model"
)

// Printer knows how to print deployment information in different formats.
type Printer interface {
	PrintStages(stages []model.StageDefinition) error
	PrintDefaults(defaults model.UIDefaults) error
	PrintTasks(tasks []model.Task) error
	PrintTask(task dashboard.TaskView) error
	PrintFeed(f feed.Feed) error
	PrintMessage(msg string) error
}
