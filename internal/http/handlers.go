package http

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/nvoss/teamseek/internal/listing"
	"github.com/nvoss/teamseek/internal/pubsub"
	"github.com/nvoss/teamseek/internal/session"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// InputHandler is the transport bridge: it feeds one user input into the
// session machine and returns the render instruction as JSON.
func (s *Server) InputHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}

		var req inputRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		var (
			reply session.Reply
			err   error
		)
		switch req.Kind {
		case "start":
			reply, err = s.Machine.Start(r.Context(), req.UserID, req.DisplayName)
		case "ping":
			reply = s.Machine.Ping()
		case "token":
			reply, err = s.Machine.HandleToken(r.Context(), req.UserID, req.Value)
		case "text":
			reply, err = s.Machine.HandleText(r.Context(), req.UserID, req.Value)
		default:
			http.Error(w, "kind must be one of start, ping, token, text", http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Error("Failed to handle input", "error", err, "user", req.UserID, "kind", req.Kind)
			http.Error(w, "Failed to handle input", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			log.Error("Failed to encode reply", "error", err)
		}
	}
}

// SweepHandler triggers one sweep cycle outside the regular schedule.
func (s *Server) SweepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}

		expired, err := s.Sweeper.SweepOnce(r.Context())
		if err != nil {
			http.Error(w, "Sweep failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"expired": expired})
	}
}

// ListingsHandler exposes the listing view as JSON. With a category filter it
// mirrors the user-facing browse query; without one it returns the global
// view, inactive rows included.
func (s *Server) ListingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			items []listing.Listing
			err   error
		)
		if category := r.URL.Query().Get("category"); category != "" {
			teamSize := listing.TeamSize(r.URL.Query().Get("team_size"))
			items, err = s.Store.ListActive(listing.Category(category), teamSize)
		} else {
			limit := queryInt(r, "limit", 50)
			offset := queryInt(r, "offset", 0)
			items, err = s.Store.ListAll(limit, offset)
		}
		if err != nil {
			log.Error("Failed to list listings", "error", err)
			http.Error(w, "Failed to list listings", http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = []listing.Listing{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	}
}

// RetentionHandler reports the current retention window.
func (s *Server) RetentionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := s.Store.GetRetentionDays()
		if err != nil {
			log.Error("Failed to read retention", "error", err)
			http.Error(w, "Failed to read retention", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"retention_days": days})
	}
}

// ExportUsersHandler streams the users table as a CSV download.
func (s *Server) ExportUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)

		count, err := s.Store.ExportUsers(w)
		if err != nil {
			log.Error("Failed to export users", "error", err)
			// Headers are already out, all we can do is log.
			return
		}
		log.Info("Exported users", "count", count)
	}
}

// ListingExpiredHandler receives push-subscription deliveries for the
// listing-expired topic and relays them to the audit channel; the sweeper
// only messages the owner directly.
func (s *Server) ListingExpiredHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}

		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data string `json:"data"`
			} `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}

		event := pubsub.ListingEvent{}
		if err := s.Events.ProcessMessage(rawData, &event); err != nil {
			log.Error("Failed to decode listing event", "error", err)
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}
		log.Debug("Received listing event", "subscription", pubsubMsg.Subscription, "listing", event.ListingID)

		text := fmt.Sprintf("Listing #%d (%s) by %s expired.", event.ListingID, event.Category, event.OwnerID)
		if err := s.Notifier.NotifyAudit(r.Context(), text); err != nil {
			log.Error("Failed to relay expiry to audit channel", "error", err, "listing", event.ListingID)
		}
		w.Write([]byte("OK"))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
