package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"travel-intel/internal/app"
	"travel-intel/internal/config"
	"travel-intel/internal/geo"
	"travel-intel/internal/llm"
	"travel-intel/internal/queue"
	"travel-intel/internal/search"
	"travel-intel/internal/store"
)

const lisbonBriefing = `# Lisbon in October

**Alfama:** Medieval hillside district with fado houses and narrow winding lanes.

**Belem Tower:** Fortified riverside tower guarding the harbor entrance since 1519.

(---PAGE BREAK---)

## COORDINATES
Alfama | 38.7131 | -9.1335
Belem Tower | 38.6916 | -9.2160
`

func newTestWorker() (worker, *store.MockStore, *search.MockClient, *llm.MockClient) {
	st := new(store.MockStore)
	sc := new(search.MockClient)
	l := new(llm.MockClient)
	deps := app.Deps{
		Config: config.Config{SearchMaxResults: 3},
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:  st,
		Search: sc,
		LLM:    l,
	}
	return worker{deps: deps}, st, sc, l
}

func genTask(t *testing.T, payload generateTaskPayload) queue.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return queue.Task{Type: queue.TaskTypeGenerate, Payload: body}
}

func TestHandleGeneratePipeline(t *testing.T) {
	w, st, sc, l := newTestWorker()
	guideID := uuid.New()

	results := []search.Result{
		{Content: "October in Lisbon is mild.", URL: "https://example.com/weather"},
	}
	sc.On("Search", mock.Anything, search.BuildQuery("Lisbon", "October"), 3).Return(results, nil)
	l.On("GenerateBriefing", mock.Anything, "Lisbon", "October", search.FormatContext(results)).Return(lisbonBriefing, nil)
	l.On("PlaceSummary", mock.Anything, mock.Anything, mock.Anything).Return("A landmark.", nil).Maybe()

	st.On("SaveGuideText", mock.Anything, guideID, lisbonBriefing, []string{"https://example.com/weather"}).Return(nil)
	st.On("SaveLocations", mock.Anything, guideID, mock.MatchedBy(func(locs []geo.Location) bool {
		return len(locs) == 2 && locs[0].Name == "Alfama" && locs[1].Name == "Belem Tower"
	}), mock.MatchedBy(func(descs []string) bool {
		return len(descs) == 2 && descs[0] != "" && descs[1] != ""
	})).Return(nil)
	st.On("UpdateGuideStatus", mock.Anything, guideID, store.StatusReady).Return(nil)

	err := w.handleGenerate(context.Background(), genTask(t, generateTaskPayload{
		GuideID:     guideID,
		Destination: "Lisbon",
		Month:       "October",
	}))

	require.NoError(t, err)
	st.AssertExpectations(t)
	l.AssertExpectations(t)
}

func TestHandleGenerateSearchFailureIsNonFatal(t *testing.T) {
	w, st, sc, l := newTestWorker()
	guideID := uuid.New()

	sc.On("Search", mock.Anything, mock.Anything, 3).Return(nil, errors.New("tavily down"))
	l.On("GenerateBriefing", mock.Anything, "Lisbon", "October", "").Return(lisbonBriefing, nil)
	l.On("PlaceSummary", mock.Anything, mock.Anything, mock.Anything).Return("A landmark.", nil).Maybe()
	st.On("SaveGuideText", mock.Anything, guideID, lisbonBriefing, []string(nil)).Return(nil)
	st.On("SaveLocations", mock.Anything, guideID, mock.Anything, mock.Anything).Return(nil)
	st.On("UpdateGuideStatus", mock.Anything, guideID, store.StatusReady).Return(nil)

	err := w.handleGenerate(context.Background(), genTask(t, generateTaskPayload{
		GuideID:     guideID,
		Destination: "Lisbon",
		Month:       "October",
	}))

	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestHandleGenerateLLMFailureMarksFailed(t *testing.T) {
	w, st, sc, l := newTestWorker()
	guideID := uuid.New()

	sc.On("Search", mock.Anything, mock.Anything, 3).Return(nil, nil)
	l.On("GenerateBriefing", mock.Anything, "Lisbon", "October", "").Return("", errors.New("rate limited"))
	st.On("UpdateGuideStatus", mock.Anything, guideID, store.StatusFailed).Return(nil)

	err := w.handleGenerate(context.Background(), genTask(t, generateTaskPayload{
		GuideID:     guideID,
		Destination: "Lisbon",
		Month:       "October",
	}))

	require.Error(t, err)
	st.AssertExpectations(t)
	st.AssertNotCalled(t, "SaveGuideText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleGenerateMalformedPayloadIsDropped(t *testing.T) {
	w, st, _, _ := newTestWorker()

	err := w.handleGenerate(context.Background(), queue.Task{
		Type:    queue.TaskTypeGenerate,
		Payload: []byte("{not json"),
	})

	assert.NoError(t, err)
	st.AssertNotCalled(t, "UpdateGuideStatus", mock.Anything, mock.Anything, mock.Anything)
}
