package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cizu-api/internal/api/middleware"
	"github.com/phrazzld/cizu-api/internal/api/shared"
	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
	"github.com/phrazzld/cizu-api/internal/service/topicgen"
	"github.com/phrazzld/cizu-api/internal/task"
)

// MockTopicService mocks the topicgen.Service interface
type MockTopicService struct {
	mock.Mock
}

func (m *MockTopicService) RequestGeneration(ctx context.Context, topicID uuid.UUID) (*domain.Topic, error) {
	args := m.Called(ctx, topicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Topic), args.Error(1)
}

func (m *MockTopicService) Progress(ctx context.Context, topicID uuid.UUID) (*topicgen.ProgressReport, error) {
	args := m.Called(ctx, topicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*topicgen.ProgressReport), args.Error(1)
}

func newTestRouter(svc topicgen.Service) http.Handler {
	return NewRouter(NewTopicHandler(svc, logger.Discard()), logger.Discard())
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRequestGeneration(t *testing.T) {
	t.Parallel()

	topic, err := domain.NewTopic("family", "HSK1", 10, 2)
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		setup      func(m *MockTopicService)
		wantStatus int
		wantError  string
	}{
		{
			name: "queued",
			path: "/api/topics/" + topic.ID.String() + "/generate",
			setup: func(m *MockTopicService) {
				m.On("RequestGeneration", mock.Anything, topic.ID).Return(topic, nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "already in progress",
			path: "/api/topics/" + topic.ID.String() + "/generate",
			setup: func(m *MockTopicService) {
				m.On("RequestGeneration", mock.Anything, topic.ID).Return(nil, topicgen.ErrAlreadyInProgress)
			},
			wantStatus: http.StatusConflict,
			wantError:  "Topic generation already in progress",
		},
		{
			name: "unknown topic",
			path: "/api/topics/" + topic.ID.String() + "/generate",
			setup: func(m *MockTopicService) {
				m.On("RequestGeneration", mock.Anything, topic.ID).Return(nil, topicgen.ErrTopicNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantError:  "Topic not found",
		},
		{
			name: "queue full",
			path: "/api/topics/" + topic.ID.String() + "/generate",
			setup: func(m *MockTopicService) {
				m.On("RequestGeneration", mock.Anything, topic.ID).
					Return(nil, errors.Join(errors.New("submit"), task.ErrQueueFull))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "internal failure",
			path: "/api/topics/" + topic.ID.String() + "/generate",
			setup: func(m *MockTopicService) {
				m.On("RequestGeneration", mock.Anything, topic.ID).
					Return(nil, errors.New("pq: relation \"topics\" does not exist"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to start topic generation",
		},
		{
			name:       "malformed id",
			path:       "/api/topics/not-a-uuid/generate",
			setup:      func(*MockTopicService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid id: has invalid format",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &MockTopicService{}
			tc.setup(svc)

			w := serve(t, newTestRouter(svc), http.MethodPost, tc.path)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.TraceHeader))
			if tc.wantStatus == http.StatusAccepted {
				var resp GenerationResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, topic.ID.String(), resp.TopicID)
				assert.Equal(t, 10, resp.WordTarget)
				assert.Equal(t, "draft", resp.Status)
			} else {
				resp := decodeError(t, w)
				if tc.wantError != "" {
					assert.Equal(t, tc.wantError, resp.Error)
				}
				assert.Equal(t, w.Header().Get(middleware.TraceHeader), resp.TraceID)
				assert.NotContains(t, w.Body.String(), "pq:")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestGetProgress(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	updated := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	t.Run("reports counters", func(t *testing.T) {
		t.Parallel()

		svc := &MockTopicService{}
		svc.On("Progress", mock.Anything, id).Return(&topicgen.ProgressReport{
			TopicID:            id,
			Status:             domain.TopicStatusGenerating,
			WordTarget:         10,
			WordsSelected:      10,
			SentencesGenerated: 12,
			SentenceAttempts:   15,
			SentenceTasksTotal: 30,
			UpdatedAt:          updated,
		}, nil)

		w := serve(t, newTestRouter(svc), http.MethodGet, "/api/topics/"+id.String()+"/progress")

		require.Equal(t, http.StatusOK, w.Code)
		var resp ProgressResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, ProgressResponse{
			TopicID:            id.String(),
			Status:             "generating",
			WordTarget:         10,
			WordsSelected:      10,
			SentencesGenerated: 12,
			SentenceAttempts:   15,
			SentenceTasksTotal: 30,
			Done:               false,
			UpdatedAt:          updated,
		}, resp)
	})

	t.Run("finished topic is done", func(t *testing.T) {
		t.Parallel()

		svc := &MockTopicService{}
		svc.On("Progress", mock.Anything, id).Return(&topicgen.ProgressReport{
			TopicID:      id,
			Status:       domain.TopicStatusError,
			ErrorMessage: "word list generation failed",
		}, nil)

		w := serve(t, newTestRouter(svc), http.MethodGet, "/api/topics/"+id.String()+"/progress")

		require.Equal(t, http.StatusOK, w.Code)
		var resp ProgressResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Done)
		assert.Equal(t, "word list generation failed", resp.ErrorMessage)
	})

	t.Run("unknown topic", func(t *testing.T) {
		t.Parallel()

		svc := &MockTopicService{}
		svc.On("Progress", mock.Anything, id).Return(nil, topicgen.ErrTopicNotFound)

		w := serve(t, newTestRouter(svc), http.MethodGet, "/api/topics/"+id.String()+"/progress")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Topic not found", decodeError(t, w).Error)
	})

	t.Run("nil uuid", func(t *testing.T) {
		t.Parallel()

		svc := &MockTopicService{}

		w := serve(t, newTestRouter(svc), http.MethodGet, "/api/topics/"+uuid.Nil.String()+"/progress")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Progress", mock.Anything, mock.Anything)
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	w := serve(t, newTestRouter(&MockTopicService{}), http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	w := serve(t, newTestRouter(&MockTopicService{}), http.MethodGet, "/api/topics/"+uuid.NewString()+"/generate")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
