// Package api exposes the formula engine over HTTP for the dashboard editor:
// validation on save, preview evaluation and the helper list for autocompletion.
package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/lunfardo314/widgetfl/formula"
	"github.com/lunfardo314/widgetfl/util/logger"
	"go.uber.org/zap"
)

type Server struct {
	cache *formula.Cache
	log   *zap.SugaredLogger
}

// New with nil cache uses a private cache with default options
func New(cache *formula.Cache, log *zap.SugaredLogger) *Server {
	if cache == nil {
		cache = formula.NewCache(formula.CacheOptions{})
	}
	return &Server{
		cache: cache,
		log:   logger.OrNop(log),
	}
}

func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/helpers", s.listHelpers).Methods("GET")
	r.HandleFunc("/formulas/validate", s.validateFormula).Methods("POST")
	r.HandleFunc("/formulas/evaluate", s.evaluateFormula).Methods("POST")

	return r
}

// Handler is the router with access log in Common Log Format written to the logger
func (s *Server) Handler() http.Handler {
	out := zap.NewStdLog(s.log.Desugar().Named("http")).Writer()
	return handlers.LoggingHandler(out, s.NewRouter())
}
