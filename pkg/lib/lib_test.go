package lib_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/deployboard/internal/backend/fake"
	"github.com/slok/deployboard/pkg/lib"
)

// newTestClient creates a client against an in-memory fake backend.
func newTestClient(t *testing.T, failStage string) (*fake.Server, *lib.Client) {
	t.Helper()

	now := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	n := 0
	srv, err := fake.NewServer(fake.ServerConfig{
		FailStage: failStage,
		Now: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
		IDGen: func() string {
			n++
			return fmt.Sprintf("%08dabcdef", n)
		},
	})
	require.NoError(t, err)

	hsrv := httptest.NewServer(srv)
	t.Cleanup(hsrv.Close)

	client, err := lib.New(lib.Config{BackendURL: hsrv.URL})
	require.NoError(t, err)

	return srv, client
}

func TestNewInvalidURL(t *testing.T) {
	_, err := lib.New(lib.Config{BackendURL: "ftp://127.0.0.1"})
	assert.Error(t, err)
}

func TestStagesAndDefaults(t *testing.T) {
	_, client := newTestClient(t, "")
	ctx := context.Background()

	stages, err := client.Stages(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, stages)
	assert.Equal(t, "prepare", stages[0].Name)
	assert.Equal(t, 1, stages[0].Order)

	d, err := client.Defaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"prepare"}, d.Stages)
}

func TestSubmitTask(t *testing.T) {
	tests := map[string]struct {
		opts      lib.SubmitTaskOpts
		expStages []string
		expErr    error
	}{
		"Submitting without stages should use the backend defaults.": {
			opts:      lib.SubmitTaskOpts{},
			expStages: []string{"prepare"},
		},
		"Submitting stages should send them in catalog order.": {
			opts:      lib.SubmitTaskOpts{Stages: []string{"cleanup", "prepare", "cleanup"}},
			expStages: []string{"prepare", "cleanup"},
		},
		"Submitting an unknown stage should fail.": {
			opts:   lib.SubmitTaskOpts{Stages: []string{"missing"}},
			expErr: lib.ErrNotValid,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, client := newTestClient(t, "")

			task, err := client.SubmitTask(context.Background(), tc.opts)
			if tc.expErr != nil {
				assert.ErrorIs(t, err, tc.expErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expStages, task.Stages)
			assert.Equal(t, lib.TaskStatusRunning, task.Status)
			assert.False(t, task.CreatedAt.IsZero())
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	srv, client := newTestClient(t, "")
	ctx := context.Background()

	task, err := client.SubmitTask(ctx, lib.SubmitTaskOpts{Stages: []string{"prepare", "init_cluster"}})
	require.NoError(t, err)

	// Start and complete prepare, start init_cluster.
	srv.Step()
	srv.Step()
	srv.Step()

	detail, err := client.GetTask(ctx, task.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, task.ID, detail.Task.ID)
	assert.Equal(t, 1, detail.Completed)
	assert.Equal(t, 2, detail.Total)
	assert.Equal(t, 50, detail.Percent)
	require.Len(t, detail.Stages, 2)
	assert.Equal(t, lib.StageStatusDone, detail.Stages[0].Status)
	assert.Equal(t, lib.StageStatusRunning, detail.Stages[1].Status)
	require.NotNil(t, detail.Stages[0].Duration)
	assert.Equal(t, time.Second, *detail.Stages[0].Duration)
	require.NotEmpty(t, detail.Feed)
	assert.Equal(t, "init_cluster", detail.Feed[0].Stage)

	tasks, err := client.ListTasks(ctx, &lib.ListTasksOpts{Status: lib.TaskStatusRunning})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	err = client.RemoveTask(ctx, task.ID, false)
	assert.ErrorIs(t, err, lib.ErrNotValid)

	aborted, err := client.AbortTask(ctx, task.ID, "maintenance")
	require.NoError(t, err)
	assert.True(t, aborted.AbortRequested)
	assert.Equal(t, "maintenance", aborted.AbortReason)

	feed, err := client.Feed(ctx, &lib.FeedOpts{TaskRef: task.ID, Levels: []lib.Level{lib.LevelWarning}})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Task aborted: maintenance", feed[0].Message)

	err = client.RemoveTask(ctx, task.ID, false)
	require.NoError(t, err)

	_, err = client.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, lib.ErrNotFound)
}

func TestListTasksInvalidStatus(t *testing.T) {
	_, client := newTestClient(t, "")

	_, err := client.ListTasks(context.Background(), &lib.ListTasksOpts{Status: "unknown"})
	assert.ErrorIs(t, err, lib.ErrNotValid)
}
