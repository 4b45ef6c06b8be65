package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"questionnaire-builder/application/commands/bus"
	"questionnaire-builder/application/ports"
	querybus "questionnaire-builder/application/queries/bus"
	"questionnaire-builder/interfaces/http/rest/handlers"
	"questionnaire-builder/interfaces/http/rest/middleware"
	"questionnaire-builder/pkg/common"
	pkgerrors "questionnaire-builder/pkg/errors"
)

// Options tunes the router. Zero values disable the optional pieces.
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	MaxImportBytes int64
	Debug          bool

	// Metrics is served at /metrics and Recorder observes every request.
	Metrics  http.Handler
	Recorder middleware.HTTPRecorder

	// Ready reports whether the service can take traffic.
	Ready func(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	ids        ports.IDProvider
	opts       Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	ids ports.IDProvider,
	opts Options,
	logger *zap.Logger,
) *Router {
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = 10 << 20
	}
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		ids:        ids,
		opts:       opts,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	errs := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)
	deps := handlers.Dependencies{
		CommandBus: rt.commandBus,
		QueryBus:   rt.queryBus,
		Errors:     errs,
		Logger:     rt.logger,
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Recorder != nil {
		router.Use(middleware.Metrics(rt.opts.Recorder))
	}
	router.Use(errs.Middleware)

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errs.Handle(w, r, pkgerrors.NewNotFoundError("route "+r.URL.Path).WithCode("ROUTE_NOT_FOUND"))
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck(errs))
	if rt.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		questionnaires := handlers.NewQuestionnaireHandler(deps, rt.ids, rt.opts.MaxImportBytes)
		questions := handlers.NewQuestionHandler(deps, rt.ids)
		connections := handlers.NewConnectionHandler(deps)

		r.Get("/criteria", connections.ListCatalog)

		r.Route("/questionnaires", func(r chi.Router) {
			r.Post("/", questionnaires.CreateQuestionnaire)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", questionnaires.GetQuestionnaire)
				r.Delete("/", questionnaires.DeleteQuestionnaire)
				r.Post("/import", questionnaires.ImportQuestionnaire)
				r.Get("/export", questionnaires.ExportQuestionnaire)
				r.Get("/layout", questionnaires.GetLayout)
				r.Post("/swap-titles", questions.SwapTitles)

				r.Get("/connections", connections.ListConnections)
				r.Post("/connections", connections.Connect)
				r.Delete("/connections/{qid}/{label}", connections.Disconnect)

				r.Post("/questions", questions.AddQuestion)
				r.Route("/questions/{qid}", func(r chi.Router) {
					r.Get("/", questions.GetQuestion)
					r.Patch("/", questions.UpdateQuestion)
					r.Delete("/", questions.DeleteQuestion)
					r.Put("/type", questions.ChangeType)
					r.Post("/move", questions.MoveQuestion)
					r.Post("/copy", questions.CopyQuestion)
					r.Get("/criteria-kinds", connections.ListLegalCriteria)
					r.Get("/criteria/{branch}", connections.GetCriteria)
					r.Put("/criteria/{branch}", connections.SetCriteria)
				})
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(errs *pkgerrors.ErrorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.opts.Ready != nil {
			if err := rt.opts.Ready(r.Context()); err != nil {
				errs.Handle(w, r, pkgerrors.NewUnavailableError("session store").WithCause(err))
				return
			}
		}
		common.RespondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
	}
}
