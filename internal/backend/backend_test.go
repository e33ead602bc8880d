package backend_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/backend/backendmock"
	"github.com/slok/deployboard/internal/model"
)

func TestAPIError(t *testing.T) {
	notFound := fmt.Errorf("could not get: %w", &backend.APIError{StatusCode: http.StatusNotFound, Message: "Task not found"})
	conflict := &backend.APIError{StatusCode: http.StatusConflict, Message: "Task already finished"}

	assert.ErrorIs(t, notFound, model.ErrNotFound)
	assert.NotErrorIs(t, conflict, model.ErrNotFound)
	assert.Equal(t, "api error (409): Task already finished", conflict.Error())
}

func TestResolveTask(t *testing.T) {
	notFound := &backend.APIError{StatusCode: http.StatusNotFound, Message: "Task not found"}
	tasks := []model.Task{
		{ID: "abcdef0011"},
		{ID: "abcdef0022"},
		{ID: "12345678aa"},
	}

	tests := map[string]struct {
		ref      string
		mock     func(m *backendmock.MockClient)
		expID    string
		expErr   bool
		expErrIs error
	}{
		"An empty reference should fail.": {
			ref:      " ",
			mock:     func(m *backendmock.MockClient) {},
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"A full ID should be got directly.": {
			ref: "abcdef0011",
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "abcdef0011").Once().Return(&model.Task{ID: "abcdef0011"}, nil)
			},
			expID: "abcdef0011",
		},
		"A unique prefix should resolve the task.": {
			ref: "1234",
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "1234").Once().Return(nil, notFound)
				m.On("ListTasks", mock.Anything).Once().Return(tasks, nil)
			},
			expID: "12345678aa",
		},
		"An ambiguous prefix should fail.": {
			ref: "abcdef",
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "abcdef").Once().Return(nil, notFound)
				m.On("ListTasks", mock.Anything).Once().Return(tasks, nil)
			},
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"An unknown prefix should be not found.": {
			ref: "ffff",
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "ffff").Once().Return(nil, notFound)
				m.On("ListTasks", mock.Anything).Once().Return(tasks, nil)
			},
			expErr:   true,
			expErrIs: model.ErrNotFound,
		},
		"A transport error should not fall back to the listing.": {
			ref: "abcdef0011",
			mock: func(m *backendmock.MockClient) {
				m.On("GetTask", mock.Anything, "abcdef0011").Once().Return(nil, fmt.Errorf("connection refused"))
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &backendmock.MockClient{}
			test.mock(m)

			task, err := backend.ResolveTask(context.Background(), m, test.ref)

			if test.expErr {
				require.Error(err)
				if test.expErrIs != nil {
					assert.ErrorIs(err, test.expErrIs)
				}
			} else {
				require.NoError(err)
				assert.Equal(test.expID, task.ID)
			}

			m.AssertExpectations(t)
		})
	}
}
