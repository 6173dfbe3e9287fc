package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"travel-intel/internal/app"
	"travel-intel/internal/cache"
	"travel-intel/internal/geo"
	"travel-intel/internal/httputil"
	"travel-intel/internal/store"
)

type chatRequest struct {
	GuideID  string `json:"guide_id" validate:"required,uuid"`
	Question string `json:"question" validate:"required,min=2,max=2000"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()

	r := httputil.NewRouter(deps.Log)
	r.Post("/api/chat", chatHandler(deps))
	r.Get("/api/guides/{id}/chat", historyHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("chat service listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func chatHandler(deps app.Deps) http.HandlerFunc {
	ttl := time.Duration(deps.Config.CacheTTL) * time.Second

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		guideID := uuid.MustParse(req.GuideID)

		key := cache.GenerateCacheKey(req.GuideID, req.Question)
		if cached, err := deps.Cache.GetChatAnswer(ctx, key); err != nil {
			deps.Log.Warn("cache lookup failed", "guide_id", guideID, "err", err)
		} else if cached != nil {
			httputil.WriteJSON(w, http.StatusOK, map[string]any{
				"answer": cached.Answer,
				"cached": true,
			})
			return
		}

		g, err := deps.Store.GetGuide(ctx, guideID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrGuideNotFound) {
				status = http.StatusNotFound
			}
			httputil.Fail(deps.Log, w, "guide not found", err, status)
			return
		}
		if g.Status != store.StatusReady {
			httputil.Fail(deps.Log, w, "guide is not ready yet", nil, http.StatusConflict)
			return
		}

		// The coordinate appendix is machine data; keep it out of the
		// conversation context.
		answer, err := deps.LLM.Chat(ctx, geo.StripCoordinateSection(g.GuideText), req.Question)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to answer question", err, http.StatusInternalServerError)
			return
		}

		// History and cache writes are best-effort; the user already has
		// their answer.
		if err := deps.Store.SaveChatMessage(ctx, guideID, "user", req.Question); err != nil {
			deps.Log.Warn("failed to save user message", "guide_id", guideID, "err", err)
		}
		if err := deps.Store.SaveChatMessage(ctx, guideID, "assistant", answer); err != nil {
			deps.Log.Warn("failed to save assistant message", "guide_id", guideID, "err", err)
		}
		if err := deps.Cache.SetChatAnswer(ctx, key, &cache.ChatAnswer{Answer: answer}, ttl); err != nil {
			deps.Log.Warn("failed to cache answer", "guide_id", guideID, "err", err)
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"answer": answer,
			"cached": false,
		})
	}
}

func historyHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guideID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid guide id", err, http.StatusBadRequest)
			return
		}
		messages, err := deps.Store.ListChatMessages(r.Context(), guideID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load chat history", err, http.StatusInternalServerError)
			return
		}
		items := make([]map[string]any, 0, len(messages))
		for _, m := range messages {
			items = append(items, map[string]any{
				"role":       m.Role,
				"content":    m.Content,
				"created_at": m.CreatedAt,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"messages": items})
	}
}
