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

func NewServer(store listing.Store, machine *session.Machine, sw *sweeper.Sweeper, gateway moderation.Gateway, notif notifier.Notifier, events pubsub.PubSubClient, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config) *Server {
	server := &Server{
		Store:          store,
		Machine:        machine,
		Sweeper:        sw,
		Gateway:        gateway,
		Notifier:       notif,
		Events:         events,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/input", Chain(s.InputHandler(), paramsMiddleware))
	s.Router.Handle("/sweep", Chain(s.SweepHandler(), paramsMiddleware))
	s.Router.Handle("/listings", Chain(s.ListingsHandler(), paramsMiddleware))
	s.Router.Handle("/retention", Chain(s.RetentionHandler(), paramsMiddleware))
	s.Router.Handle("/export/users", Chain(s.ExportUsersHandler(), paramsMiddleware))
	s.Router.Handle("/events/listing-expired", Chain(s.ListingExpiredHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
