package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"travel-intel/internal/app"
	"travel-intel/internal/geo"
	"travel-intel/internal/httputil"
	"travel-intel/internal/queue"
	"travel-intel/internal/store"
	"travel-intel/internal/summarize"
)

type generateRequest struct {
	Destination string `json:"destination" validate:"required,min=2,max=120"`
	Month       string `json:"month" validate:"required,oneof=January February March April May June July August September October November December"`
	Refresh     bool   `json:"refresh"`
}

type generateTaskPayload struct {
	GuideID     uuid.UUID `json:"guide_id"`
	Destination string    `json:"destination"`
	Month       string    `json:"month"`
}

type updateRequest struct {
	GuideText string `json:"guide_text" validate:"required"`
}

type locationResponse struct {
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Description  string  `json:"description"`
	MapURL       string  `json:"map_url"`
	WikipediaURL string  `json:"wikipedia_url"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/guides", generateHandler(deps))
	r.Get("/api/guides", listGuidesHandler(deps))
	r.Get("/api/guides/{id}", getGuideHandler(deps))
	r.Put("/api/guides/{id}", updateGuideHandler(deps))
	r.Delete("/api/guides/{id}", deleteGuideHandler(deps))
	r.Post("/api/guides/import", importHandler(deps))
	r.Post("/api/chat", chatProxyHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func generateHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		// Reuse the latest ready guide for this destination/month unless a
		// regeneration was explicitly requested.
		if !req.Refresh {
			if g, err := deps.Store.LatestReadyGuide(ctx, req.Destination, req.Month); err == nil {
				httputil.WriteJSON(w, http.StatusOK, map[string]any{
					"guide_id": g.ID.String(),
					"status":   g.Status,
					"cached":   true,
				})
				return
			} else if !errors.Is(err, store.ErrGuideNotFound) {
				httputil.Fail(deps.Log, w, "failed to look up existing guide", err, http.StatusInternalServerError)
				return
			}
		}

		guide, err := deps.Store.CreateGuide(ctx, req.Destination, req.Month)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist guide", err, http.StatusInternalServerError)
			return
		}

		body, err := json.Marshal(generateTaskPayload{
			GuideID:     guide.ID,
			Destination: req.Destination,
			Month:       req.Month,
		})
		if err != nil {
			fail(deps, ctx, w, "marshal payload failed", err, guide.ID, http.StatusInternalServerError, true)
			return
		}
		task := queue.Task{Type: queue.TaskTypeGenerate, Payload: body}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			fail(deps, ctx, w, "failed to enqueue guide generation; please retry", err, guide.ID, http.StatusInternalServerError, true)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"guide_id": guide.ID.String(),
			"status":   guide.Status,
		})
	}
}

// fail is gateway-specific error handler that can mark guides as failed
func fail(deps app.Deps, ctx context.Context, w http.ResponseWriter, message string, err error, guideID uuid.UUID, status int, markFailed bool) {
	log := deps.Log.With("guide_id", guideID)
	if markFailed && guideID != uuid.Nil {
		if upErr := deps.Store.UpdateGuideStatus(ctx, guideID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark guide failed", "err", upErr)
		}
	}
	httputil.Fail(log, w, message, err, status)
}

func listGuidesHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guides, err := deps.Store.ListGuides(r.Context())
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list guides", err, http.StatusInternalServerError)
			return
		}
		items := make([]map[string]any, 0, len(guides))
		for _, g := range guides {
			items = append(items, map[string]any{
				"id":          g.ID.String(),
				"destination": g.Destination,
				"month":       g.Month,
				"status":      g.Status,
				"created_at":  g.CreatedAt,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"guides": items})
	}
}

func getGuideHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guideID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid guide id", err, http.StatusBadRequest)
			return
		}
		g, err := deps.Store.GetGuide(r.Context(), guideID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrGuideNotFound) {
				status = http.StatusNotFound
			}
			httputil.Fail(deps.Log, w, "guide not found", err, status)
			return
		}
		locations, err := deps.Store.ListLocations(r.Context(), guideID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load locations", err, http.StatusInternalServerError)
			return
		}

		locs := make([]locationResponse, 0, len(locations))
		for _, l := range locations {
			point := geo.Location{Name: l.Name, Lat: l.Lat, Lon: l.Lon}
			locs = append(locs, locationResponse{
				Name:         l.Name,
				Lat:          l.Lat,
				Lon:          l.Lon,
				Description:  l.Description,
				MapURL:       geo.PlaceReferenceURL(l.Name, g.Destination, &point),
				WikipediaURL: geo.WikipediaSearchURL(l.Name, g.Destination),
			})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"id":           g.ID.String(),
			"destination":  g.Destination,
			"month":        g.Month,
			"status":       g.Status,
			"guide_text":   g.GuideText,
			"display_text": geo.StripCoordinateSection(g.GuideText),
			"sources":      g.Sources,
			"locations":    locs,
			"created_at":   g.CreatedAt,
		})
	}
}

func updateGuideHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		guideID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid guide id", err, http.StatusBadRequest)
			return
		}
		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		if err := deps.Store.UpdateGuideText(ctx, guideID, req.GuideText); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrGuideNotFound) {
				status = http.StatusNotFound
			}
			httputil.Fail(deps.Log, w, "failed to update guide", err, status)
			return
		}

		// Edited text can move or rename places, so re-derive the map data.
		locations, descriptions := deriveLocations(ctx, deps, req.GuideText)
		if err := deps.Store.SaveLocations(ctx, guideID, locations, descriptions); err != nil {
			httputil.Fail(deps.Log, w, "failed to refresh locations", err, http.StatusInternalServerError)
			return
		}
		if err := deps.Cache.InvalidateGuide(ctx, guideID.String()); err != nil {
			deps.Log.Warn("failed to invalidate chat cache", "guide_id", guideID, "err", err)
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"guide_id":  guideID.String(),
			"locations": len(locations),
		})
	}
}

func deleteGuideHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guideID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid guide id", err, http.StatusBadRequest)
			return
		}
		if err := deps.Store.DeleteGuide(r.Context(), guideID); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrGuideNotFound) {
				status = http.StatusNotFound
			}
			httputil.Fail(deps.Log, w, "failed to delete guide", err, status)
			return
		}
		if err := deps.Cache.InvalidateGuide(r.Context(), guideID.String()); err != nil {
			deps.Log.Warn("failed to invalidate chat cache", "guide_id", guideID, "err", err)
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"deleted": guideID.String()})
	}
}

// importHandler accepts a previously exported briefing as .txt or .pdf and
// stores it as a ready guide with freshly derived map data.
func importHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		destination := r.FormValue("destination")
		month := r.FormValue("month")
		if destination == "" || month == "" {
			httputil.Fail(deps.Log, w, "destination and month are required", nil, http.StatusBadRequest)
			return
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".txt" && ext != ".md" && ext != ".pdf" {
			httputil.Fail(deps.Log, w, "unsupported file type (only PDF, TXT and MD allowed)", nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text := extractText(header.Filename, content, deps)

		guide, err := deps.Store.CreateGuide(ctx, destination, month)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist guide", err, http.StatusInternalServerError)
			return
		}
		if err := deps.Store.SaveGuideText(ctx, guide.ID, text, nil); err != nil {
			fail(deps, ctx, w, "failed to save guide text", err, guide.ID, http.StatusInternalServerError, true)
			return
		}

		locations, descriptions := deriveLocations(ctx, deps, text)
		if err := deps.Store.SaveLocations(ctx, guide.ID, locations, descriptions); err != nil {
			fail(deps, ctx, w, "failed to save locations", err, guide.ID, http.StatusInternalServerError, true)
			return
		}
		if err := deps.Store.UpdateGuideStatus(ctx, guide.ID, store.StatusReady); err != nil {
			fail(deps, ctx, w, "failed to finalize guide", err, guide.ID, http.StatusInternalServerError, true)
			return
		}

		httputil.WriteJSON(w, http.StatusCreated, map[string]any{
			"guide_id":  guide.ID.String(),
			"locations": len(locations),
		})
	}
}

func chatProxyHandler(deps app.Deps) http.HandlerFunc {
	chatURL := "http://chat:8081/api/chat"
	client := &http.Client{Timeout: 60 * time.Second}

	return func(w http.ResponseWriter, r *http.Request) {
		// Forward request to the chat service
		req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, chatURL, r.Body)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to create request", err, http.StatusInternalServerError)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			httputil.Fail(deps.Log, w, "chat service unavailable", err, http.StatusServiceUnavailable)
			return
		}
		defer resp.Body.Close()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			deps.Log.Error("failed to copy response", "err", err)
		}
	}
}

// deriveLocations extracts coordinates from guide text and resolves a short
// description for each, using the LLM as last-resort fallback.
func deriveLocations(ctx context.Context, deps app.Deps, text string) ([]geo.Location, []string) {
	locations := geo.Extract(text)
	if len(locations) == 0 {
		return nil, nil
	}
	names := make([]string, len(locations))
	for i, l := range locations {
		names[i] = l.Name
	}
	resolver := summarize.NewResolver(summarize.Options{
		Fallback: func(ctx context.Context, guideText, name string) (string, error) {
			return deps.LLM.PlaceSummary(ctx, guideText, name)
		},
	})
	summaries := resolver.Resolve(ctx, text, names)
	descriptions := make([]string, len(summaries))
	for i, s := range summaries {
		descriptions[i] = s.Description
	}
	return locations, descriptions
}

// extractText extracts text from uploaded files, with PDF support.
func extractText(filename string, content []byte, deps app.Deps) string {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		text, err := extractPDF(content)
		if err != nil {
			deps.Log.Warn("pdf extraction failed, using raw bytes", "err", err, "filename", filename)
			return string(content)
		}
		return text
	}
	// Treat other files as plain text
	return string(content)
}

func extractPDF(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", err
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
