package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/chemlab/internal/catalog"
	"github.com/mind-engage/chemlab/internal/quizsession"
	"github.com/mind-engage/chemlab/internal/records"
)

type Deps struct {
	Catalog  *catalog.Catalog
	Records  records.Store
	Sessions *quizsession.Manager

	EnableAuthoring bool
}

// MountAPI registers the /api routes on r.
func MountAPI(r chi.Router, d Deps) {
	r.Route("/experiments", func(er chi.Router) {
		er.Get("/", ListExperimentsHandler(d.Catalog))
		if d.EnableAuthoring {
			er.Post("/", CreateExperimentHandler(d.Catalog))
		}
		er.Get("/{id}", GetExperimentHandler(d.Catalog))
	})

	r.Route("/labs/{id}", func(lr chi.Router) {
		lr.Get("/", GetLabHandler(d.Catalog))
		lr.Post("/validate", ValidateStepHandler(d.Catalog))
		lr.Post("/actions", LabActionHandler(d.Catalog, d.Records))
	})

	r.Route("/quiz", func(qr chi.Router) {
		// session routes take a bearer session token
		qr.Get("/sessions/current", QuizSessionStatusHandler(d.Sessions))
		qr.Put("/sessions/answers", SaveQuizAnswerHandler(d.Sessions))
		qr.Post("/sessions/submit", SubmitQuizSessionHandler(d.Sessions))

		qr.Get("/{id}", GetQuizHandler(d.Catalog))
		qr.Post("/{id}", SubmitQuizHandler(d.Catalog, d.Records))
		qr.Post("/{id}/sessions", StartQuizSessionHandler(d.Catalog, d.Sessions))
	})

	r.Get("/observations", ListObservationsHandler(d.Records))
	r.Post("/observations", CreateObservationHandler(d.Records))
	r.Get("/progress", GetProgressHandler(d.Catalog, d.Records))
	r.Post("/progress", UpsertProgressHandler(d.Records))

	r.Post("/analysis/turbidity", AnalyzeTurbidityHandler())
	r.Post("/analysis/compare", CompareTurbidityHandler())
}
