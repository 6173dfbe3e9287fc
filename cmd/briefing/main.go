package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"travel-intel/internal/app"
	"travel-intel/internal/geo"
	"travel-intel/internal/httputil"
	"travel-intel/internal/queue"
	"travel-intel/internal/search"
	"travel-intel/internal/store"
	"travel-intel/internal/summarize"
)

type generateTaskPayload struct {
	GuideID     uuid.UUID `json:"guide_id"`
	Destination string    `json:"destination"`
	Month       string    `json:"month"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	w := worker{deps: deps}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeGenerate, w.handleGenerate)
	})
	g.Go(func() error {
		return httputil.ServeHealth(deps, "briefing")
	})
	if err := g.Wait(); err != nil {
		deps.Log.Error("briefing worker stopped", "err", err)
		os.Exit(1)
	}
}

type worker struct {
	deps app.Deps
}

// handleGenerate runs the full briefing pipeline for one guide: web search,
// LLM generation, coordinate extraction, and per-place summaries.
func (w worker) handleGenerate(ctx context.Context, task queue.Task) error {
	var payload generateTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		// Malformed payloads will never succeed; drop without retry.
		w.deps.Log.Error("invalid generate payload", "err", err)
		return nil
	}
	log := w.deps.Log.With("guide_id", payload.GuideID, "destination", payload.Destination, "month", payload.Month)
	log.Info("generating briefing")

	if err := w.generate(ctx, payload); err != nil {
		// Mark failed so the API reflects the state; a retry that succeeds
		// flips the guide back to ready.
		if upErr := w.deps.Store.UpdateGuideStatus(ctx, payload.GuideID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark guide failed", "err", upErr)
		}
		return err
	}
	log.Info("briefing ready")
	return nil
}

func (w worker) generate(ctx context.Context, payload generateTaskPayload) error {
	query := search.BuildQuery(payload.Destination, payload.Month)
	results, err := w.deps.Search.Search(ctx, query, w.deps.Config.SearchMaxResults)
	if err != nil {
		// Search is best-effort; the LLM can still produce a briefing
		// from its own knowledge.
		w.deps.Log.Warn("web search failed, generating without context", "guide_id", payload.GuideID, "err", err)
		results = nil
	}

	text, err := w.deps.LLM.GenerateBriefing(ctx, payload.Destination, payload.Month, search.FormatContext(results))
	if err != nil {
		return fmt.Errorf("failed to generate briefing: %w", err)
	}

	locations := geo.Extract(text)
	names := make([]string, len(locations))
	for i, l := range locations {
		names[i] = l.Name
	}
	resolver := summarize.NewResolver(summarize.Options{
		Fallback: func(ctx context.Context, guideText, name string) (string, error) {
			return w.deps.LLM.PlaceSummary(ctx, guideText, name)
		},
	})
	summaries := resolver.Resolve(ctx, text, names)
	descriptions := make([]string, len(summaries))
	for i, s := range summaries {
		descriptions[i] = s.Description
	}

	if err := w.deps.Store.SaveGuideText(ctx, payload.GuideID, text, search.SourceURLs(results)); err != nil {
		return fmt.Errorf("failed to save guide text: %w", err)
	}
	if err := w.deps.Store.SaveLocations(ctx, payload.GuideID, locations, descriptions); err != nil {
		return fmt.Errorf("failed to save locations: %w", err)
	}
	if err := w.deps.Store.UpdateGuideStatus(ctx, payload.GuideID, store.StatusReady); err != nil {
		return fmt.Errorf("failed to mark guide ready: %w", err)
	}
	return nil
}
