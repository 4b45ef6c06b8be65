// Package handlers answers questionnaire queries from the session store.
package handlers

import (
	"context"
	"fmt"

	"questionnaire-builder/application/queries"
	"questionnaire-builder/application/queries/bus"
	"questionnaire-builder/application/services"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
)

// QuestionnaireQueryHandlers handles every questionnaire query.
type QuestionnaireQueryHandlers struct {
	service *services.QuestionnaireService
	catalog *criteria.Catalog
}

// NewQuestionnaireQueryHandlers creates the handler set
func NewQuestionnaireQueryHandlers(service *services.QuestionnaireService) *QuestionnaireQueryHandlers {
	return &QuestionnaireQueryHandlers{service: service, catalog: criteria.DefaultCatalog()}
}

// Register binds each query type on b
func (h *QuestionnaireQueryHandlers) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetQuestionnaireQuery{}, typed(h.getQuestionnaire)},
		{queries.GetQuestionQuery{}, typed(h.getQuestion)},
		{queries.ListEdgesQuery{}, typed(h.listEdges)},
		{queries.GetCriteriaQuery{}, typed(h.getCriteria)},
		{queries.ListLegalCriteriaQuery{}, typed(h.listLegalCriteria)},
		{queries.ListCriteriaCatalogQuery{}, typed(h.listCatalog)},
		{queries.ExportQuestionnaireQuery{}, typed(h.export)},
		{queries.GetLayoutQuery{}, typed(h.layout)},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func typed[Q bus.Query, R any](fn func(ctx context.Context, q Q) (R, error)) bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, query bus.Query) (interface{}, error) {
		q, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("unexpected query type %T", query)
		}
		return fn(ctx, q)
	})
}

func (h *QuestionnaireQueryHandlers) getQuestionnaire(ctx context.Context, q queries.GetQuestionnaireQuery) (queries.QuestionnaireView, error) {
	var view queries.QuestionnaireView
	err := h.service.View(ctx, q.QuestionnaireID, func(agg *aggregates.Questionnaire) error {
		view = queries.NewQuestionnaireView(agg)
		return nil
	})
	return view, err
}

func (h *QuestionnaireQueryHandlers) getQuestion(ctx context.Context, q queries.GetQuestionQuery) (queries.QuestionView, error) {
	var view queries.QuestionView
	err := h.service.View(ctx, q.QuestionnaireID, func(agg *aggregates.Questionnaire) error {
		id, err := valueobjects.NewQuestionID(q.QuestionID)
		if err != nil {
			return err
		}
		question, err := agg.Question(id)
		if err != nil {
			return err
		}
		view = queries.NewQuestionView(question, agg.Index(id))
		return nil
	})
	return view, err
}

func (h *QuestionnaireQueryHandlers) listEdges(ctx context.Context, q queries.ListEdgesQuery) ([]queries.EdgeView, error) {
	var edges []queries.EdgeView
	err := h.service.View(ctx, q.QuestionnaireID, func(agg *aggregates.Questionnaire) error {
		edges = queries.NewEdgeViews(agg)
		return nil
	})
	return edges, err
}

func (h *QuestionnaireQueryHandlers) getCriteria(ctx context.Context, q queries.GetCriteriaQuery) ([]queries.CriterionView, error) {
	var out []queries.CriterionView
	err := h.service.View(ctx, q.QuestionnaireID, func(agg *aggregates.Questionnaire) error {
		id, err := valueobjects.NewQuestionID(q.QuestionID)
		if err != nil {
			return err
		}
		branch, err := valueobjects.ParseBranch(q.Branch)
		if err != nil {
			return err
		}
		list, err := agg.Criteria(id, branch)
		if err != nil {
			return err
		}
		out = queries.NewCriterionViews(list)
		return nil
	})
	return out, err
}

func (h *QuestionnaireQueryHandlers) listLegalCriteria(ctx context.Context, q queries.ListLegalCriteriaQuery) ([]criteria.Option, error) {
	var out []criteria.Option
	err := h.service.View(ctx, q.QuestionnaireID, func(agg *aggregates.Questionnaire) error {
		id, err := valueobjects.NewQuestionID(q.QuestionID)
		if err != nil {
			return err
		}
		out, err = agg.LegalCriteria(id)
		return err
	})
	return out, err
}

func (h *QuestionnaireQueryHandlers) listCatalog(_ context.Context, q queries.ListCriteriaCatalogQuery) ([]criteria.Option, error) {
	if q.Type == "" {
		return criteria.AllOptions(), nil
	}
	qType, err := valueobjects.ParseQuestionType(q.Type)
	if err != nil {
		return nil, err
	}
	tags := make([]valueobjects.Tag, 0, len(q.Tags))
	for _, t := range q.Tags {
		tags = append(tags, valueobjects.Tag(t))
	}
	return h.catalog.Options(qType, tags), nil
}

func (h *QuestionnaireQueryHandlers) export(ctx context.Context, q queries.ExportQuestionnaireQuery) (queries.ExportResult, error) {
	data, err := h.service.ExportQuestionnaire(ctx, q.QuestionnaireID)
	if err != nil {
		return queries.ExportResult{}, err
	}
	return queries.ExportResult{Filename: queries.ExportFilename, Data: data}, nil
}

func (h *QuestionnaireQueryHandlers) layout(ctx context.Context, q queries.GetLayoutQuery) (queries.LayoutView, error) {
	positions, err := h.service.Layout(ctx, q.QuestionnaireID)
	if err != nil {
		return queries.LayoutView{}, err
	}
	return queries.LayoutView{Positions: positions}, nil
}
