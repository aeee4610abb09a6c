// Package httpapi serves the request/response query surface: history
// windows, derived contacts, full-text search, and engine stats.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"

	"chat-relay/domain"
	"chat-relay/runtime"
	"chat-relay/services"
)

type messageJSON struct {
	ID        string      `json:"id"`
	Sender    string      `json:"sender"`
	Recipient string      `json:"recipient"`
	Message   string      `json:"message"`
	Timestamp int64       `json:"timestamp"`
	Mood      domain.Mood `json:"mood"`
}

func historyResponse(messages []domain.Message) []messageJSON {
	return lo.Map(messages, func(item domain.Message, _ int) messageJSON {
		return messageJSON{
			ID:        item.ID.String(),
			Sender:    item.Sender,
			Recipient: item.Recipient,
			Message:   item.Body,
			Timestamp: item.CreatedAt.UnixMilli(),
			Mood:      item.Mood,
		}
	})
}

type Handler struct {
	log      *slog.Logger
	history  services.IHistoryService
	registry *runtime.Registry
	limit    int
}

func NewHandler(log *slog.Logger, history services.IHistoryService,
	registry *runtime.Registry, limit int) *Handler {
	return &Handler{log: log, history: history, registry: registry, limit: limit}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /history", h.handleHistory)
	mux.HandleFunc("GET /history/contacts", h.handleContacts)
	mux.HandleFunc("GET /history/search", h.handleSearch)
	mux.HandleFunc("GET /stats", h.handleStats)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	peer := r.URL.Query().Get("peer")
	if user == "" || peer == "" {
		http.Error(w, "user and peer are required", http.StatusBadRequest)
		return
	}

	messages, err := h.history.Messages(user, peer, h.queryLimit(r))
	if err != nil {
		h.log.Error("History read failed", "user", user, "peer", peer, "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, historyResponse(messages))
}

func (h *Handler) handleContacts(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "user is required", http.StatusBadRequest)
		return
	}

	contacts, err := h.history.Contacts(user)
	if err != nil {
		h.log.Error("Contacts read failed", "user", user, "error", err)
		http.Error(w, "contacts unavailable", http.StatusInternalServerError)
		return
	}
	if contacts == nil {
		contacts = []string{}
	}
	h.writeJSON(w, contacts)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	terms := r.URL.Query().Get("q")
	if user == "" || terms == "" {
		http.Error(w, "user and q are required", http.StatusBadRequest)
		return
	}

	hits, err := h.history.Search(r.Context(), user, terms, h.queryLimit(r))
	if err != nil {
		h.log.Error("Search failed", "user", user, "error", err)
		http.Error(w, "search unavailable", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, hits)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"online": h.registry.Len(),
		"users":  h.registry.Snapshot(),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			stats["ram_bytes"] = memInfo.RSS
		}
		if cpu, err := p.CPUPercent(); err == nil {
			stats["cpu_percent"] = cpu
		}
	}
	h.writeJSON(w, stats)
}

func (h *Handler) queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > h.limit {
		return h.limit
	}
	return limit
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Warn("Response encoding failed", "error", err)
	}
}
