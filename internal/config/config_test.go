package config_test

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/deployboard/internal/config"
	"github.com/slok/deployboard/internal/model"
)

func TestYAMLRepositoryGetConfig(t *testing.T) {
	tests := map[string]struct {
		fs        fstest.MapFS
		path      string
		expCfg    config.Config
		expErr    bool
		expErrIs  error
		expErrMsg string
	}{
		"A full config should load successfully.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`
backend:
  url: http://deploy.local:9000
  timeout: 5s
watch:
  poll_interval: 500ms
  store_capacity: 32
  abort_reason: stopped from the terminal
  task_feed_limit: 4
  global_feed_limit: 100
`)},
			},
			path: "config.yaml",
			expCfg: config.Config{
				BackendURL:      "http://deploy.local:9000",
				Timeout:         5 * time.Second,
				PollInterval:    500 * time.Millisecond,
				StoreCapacity:   32,
				AbortReason:     "stopped from the terminal",
				TaskFeedLimit:   4,
				GlobalFeedLimit: 100,
			},
		},
		"A partial config should leave the rest empty.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`
watch:
  poll_interval: 3s
`)},
			},
			path:   "config.yaml",
			expCfg: config.Config{PollInterval: 3 * time.Second},
		},
		"An empty config should load successfully.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("")},
			},
			path:   "config.yaml",
			expCfg: config.Config{},
		},
		"A missing file should fail with not exist.": {
			fs:       fstest.MapFS{},
			path:     "config.yaml",
			expErr:   true,
			expErrIs: fs.ErrNotExist,
		},
		"An invalid duration should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`
watch:
  poll_interval: often
`)},
			},
			path:      "config.yaml",
			expErr:    true,
			expErrIs:  model.ErrNotValid,
			expErrMsg: "watch.poll_interval",
		},
		"A negative duration should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`
backend:
  timeout: -1s
`)},
			},
			path:      "config.yaml",
			expErr:    true,
			expErrIs:  model.ErrNotValid,
			expErrMsg: "backend.timeout",
		},
		"A negative capacity should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`
watch:
  store_capacity: -3
`)},
			},
			path:      "config.yaml",
			expErr:    true,
			expErrIs:  model.ErrNotValid,
			expErrMsg: "watch.store_capacity",
		},
		"Unknown fields should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`
backend:
  address: http://deploy.local
`)},
			},
			path:      "config.yaml",
			expErr:    true,
			expErrMsg: "parsing YAML",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			repo := config.NewYAMLRepository(test.fs)
			cfg, err := repo.GetConfig(context.Background(), test.path)

			if test.expErr {
				require.Error(err)
				if test.expErrIs != nil {
					assert.ErrorIs(err, test.expErrIs)
				}
				if test.expErrMsg != "" {
					assert.Contains(err.Error(), test.expErrMsg)
				}
				return
			}

			require.NoError(err)
			assert.Equal(test.expCfg, cfg)
		})
	}
}

func TestYAMLRepositoryGetConfigCanceledContext(t *testing.T) {
	fsys := fstest.MapFS{"config.yaml": &fstest.MapFile{Data: []byte("")}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := config.NewYAMLRepository(fsys).GetConfig(ctx, "config.yaml")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultPath(t *testing.T) {
	assert.Contains(t, config.DefaultPath(), ".deployboard/config.yaml")
}
