package v1_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	v1 "github.com/stacklok/plugin-index/internal/api/v1"
	"github.com/stacklok/plugin-index/internal/service"
	"github.com/stacklok/plugin-index/internal/service/mocks"
	"github.com/stacklok/plugin-index/internal/sources"
	"github.com/stacklok/plugin-index/internal/sync/state"
	statemocks "github.com/stacklok/plugin-index/internal/sync/state/mocks"
)

func TestSearch(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	tests := []struct {
		name       string
		path       string
		setupMock  func(*mocks.MockSearchService)
		wantStatus int
		wantCount  int64
	}{
		{
			name: "defaults include everything",
			path: "/search",
			setupMock: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), service.SearchParams{
					Spigot: true, Modrinth: true, Hangar: true,
					Name: true, Description: true, Author: true,
				}).Return([]service.Result{{ID: id, FullCount: 7}}, nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  7,
		},
		{
			name: "query parameters are passed through",
			path: "/search?q=world&spigot=false&description=false&author=false&sort=date_updated&limit=5&offset=10",
			setupMock: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), service.SearchParams{
					Query: "world", Modrinth: true, Hangar: true, Name: true,
					Sort: service.SortDateUpdated, Limit: 5, Offset: 10,
				}).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed boolean",
			path:       "/search?hangar=nope",
			setupMock:  func(*mocks.MockSearchService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative limit",
			path:       "/search?limit=-3",
			setupMock:  func(*mocks.MockSearchService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "validation error",
			path: "/search?sort=stars",
			setupMock: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, service.ErrInvalidSort)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "database error",
			path: "/search",
			setupMock: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockSearchService(ctrl)
			tt.setupMock(svc)

			rr := httptest.NewRecorder()
			v1.Router(svc, statemocks.NewMockService(ctrl)).ServeHTTP(rr, httptest.NewRequest("GET", tt.path, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp v1.SearchResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCount, resp.FullCount)
			assert.NotNil(t, resp.Results)
		})
	}
}

func TestLatestIngestLog(t *testing.T) {
	t.Parallel()

	finished := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := &state.Entry{
		ID: 3, Action: state.ActionUpdate, Registry: sources.Hangar, Item: sources.KindProject,
		DateStarted: finished.Add(-time.Minute), DateFinished: finished, ItemsProcessed: 12, Success: true,
	}

	tests := []struct {
		name       string
		path       string
		setupMock  func(*statemocks.MockService)
		wantStatus int
	}{
		{
			name: "latest run",
			path: "/ingest-logs/latest?registry=hangar&item=project",
			setupMock: func(m *statemocks.MockService) {
				m.EXPECT().Latest(gomock.Any(), sources.Hangar, sources.KindProject).Return(entry, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "latest successful run",
			path: "/ingest-logs/latest?registry=spigot&item=author&successful=true",
			setupMock: func(m *statemocks.MockService) {
				m.EXPECT().LatestSuccessful(gomock.Any(), sources.Spigot, sources.KindAuthor).Return(entry, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "common projects",
			path: "/ingest-logs/latest?registry=common",
			setupMock: func(m *statemocks.MockService) {
				m.EXPECT().Latest(gomock.Any(), sources.Common, sources.KindProject).Return(entry, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "no runs yet",
			path: "/ingest-logs/latest?registry=modrinth&item=project",
			setupMock: func(m *statemocks.MockService) {
				m.EXPECT().Latest(gomock.Any(), sources.Modrinth, sources.KindProject).Return(nil, state.ErrNoLog)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown registry",
			path:       "/ingest-logs/latest?registry=bukkit&item=project",
			setupMock:  func(*statemocks.MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong item for registry",
			path:       "/ingest-logs/latest?registry=modrinth&item=author",
			setupMock:  func(*statemocks.MockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			logs := statemocks.NewMockService(ctrl)
			tt.setupMock(logs)

			rr := httptest.NewRecorder()
			v1.Router(mocks.NewMockSearchService(ctrl), logs).ServeHTTP(rr, httptest.NewRequest("GET", tt.path, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var got state.Entry
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, *entry, got)
			}
		})
	}
}

func TestListIngestLogs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	logs := statemocks.NewMockService(ctrl)
	logs.EXPECT().List(gomock.Any(), 100).Return(nil, nil)

	rr := httptest.NewRecorder()
	v1.Router(mocks.NewMockSearchService(ctrl), logs).
		ServeHTTP(rr, httptest.NewRequest("GET", "/ingest-logs?limit=1000", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"logs":[]}`, rr.Body.String())
}
