package feed

import (
	"github.com/slok/deployboard/internal/model"
)

// TaskPreset is the configuration used for the feed of each task.
func TaskPreset() Config {
	return Config{
		Limit:         6,
		IncludeLevels: []model.Level{model.LevelInfo, model.LevelWarning, model.LevelError},
		Title:         "Recent progress",
	}
}

// GlobalPresetLimit is the max entries of the global feed.
const GlobalPresetLimit = 300

// GlobalPreset is the configuration used for the feed of all the tasks.
func GlobalPreset() Config {
	return Config{
		Limit:         GlobalPresetLimit,
		IncludeLevels: []model.Level{model.LevelInfo, model.LevelWarning},
		HideHeader:    true,
		EmptyText:     "No live progress yet.",
		TaskResolver:  TaskLabel,
	}
}

// TaskLabel is the default task label of feed entries.
func TaskLabel(taskID string) string {
	if taskID == "" {
		return ""
	}
	return "task " + model.ShortID(taskID)
}
