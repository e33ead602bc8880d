package stop_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/deployboard/internal/app/stop"
	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/backend/backendmock"
	"github.com/slok/deployboard/internal/model"
)

func TestNewService(t *testing.T) {
	_, err := stop.NewService(stop.ServiceConfig{})
	assert.Error(t, err)

	svc, err := stop.NewService(stop.ServiceConfig{Client: &backendmock.MockClient{}})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestServiceRun(t *testing.T) {
	running := func() *model.Task { return &model.Task{ID: "t1", Status: model.TaskStatusRunning} }

	tests := map[string]struct {
		mock      func(m *backendmock.MockClient)
		req       stop.Request
		expReason string
		expErr    bool
		expErrIs  error
	}{
		"abort running task with default reason": {
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "t1").Once().Return(running(), nil)
				m.On("AbortTask", mock.Anything, "t1", "aborted by user").Once().Return(&model.Task{
					ID: "t1", Status: model.TaskStatusRunning, AbortRequested: true, AbortReason: "aborted by user",
				}, nil)
			},
			req:       stop.Request{TaskRef: "t1"},
			expReason: "aborted by user",
		},
		"abort with empty response keeps the known task": {
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "t1").Once().Return(running(), nil)
				m.On("AbortTask", mock.Anything, "t1", "maintenance").Once().Return(nil, nil)
			},
			req:       stop.Request{TaskRef: "t1", Reason: "maintenance"},
			expReason: "maintenance",
		},
		"finished task can't be aborted": {
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "t1").Once().Return(&model.Task{ID: "t1", Status: model.TaskStatusDone}, nil)
			},
			req:      stop.Request{TaskRef: "t1"},
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"conflict from the backend is not valid": {
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "t1").Once().Return(running(), nil)
				m.On("AbortTask", mock.Anything, "t1", "aborted by user").Once().Return(nil,
					&backend.APIError{StatusCode: http.StatusConflict, Message: "Task already finished"})
			},
			req:      stop.Request{TaskRef: "t1"},
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"backend error propagates": {
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "t1").Once().Return(running(), nil)
				m.On("AbortTask", mock.Anything, "t1", "aborted by user").Once().Return(nil, fmt.Errorf("boom"))
			},
			req:    stop.Request{TaskRef: "t1"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &backendmock.MockClient{}
			test.mock(m)

			svc, err := stop.NewService(stop.ServiceConfig{Client: m})
			require.NoError(err)

			task, err := svc.Run(context.Background(), test.req)

			if test.expErr {
				require.Error(err)
				if test.expErrIs != nil {
					assert.ErrorIs(err, test.expErrIs)
				}
			} else {
				require.NoError(err)
				assert.True(task.AbortRequested)
				assert.Equal(test.expReason, task.AbortReason)
			}

			m.AssertExpectations(t)
		})
	}
}
