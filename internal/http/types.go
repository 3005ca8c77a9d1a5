package http

import (
	"net/http"

	"github.com/nvoss/teamseek/internal/config"
	"github.com/nvoss/teamseek/internal/listing"
	"github.com/nvoss/teamseek/internal/metrics"
	"github.com/nvoss/teamseek/internal/moderation"
	"github.com/nvoss/teamseek/internal/notifier"
	"github.com/nvoss/teamseek/internal/pubsub"
	"github.com/nvoss/teamseek/internal/session"
	"github.com/nvoss/teamseek/internal/sweeper"
)

type Server struct {
	Store          listing.Store
	Machine        *session.Machine
	Sweeper        *sweeper.Sweeper
	Gateway        moderation.Gateway
	Notifier       notifier.Notifier
	Events         pubsub.PubSubClient
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
}

// inputRequest is the transport bridge payload: one user input, either a
// command, a symbolic token or free text.
type inputRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	// Kind is one of "start", "ping", "token", "text".
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
}
