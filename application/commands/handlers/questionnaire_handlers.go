// Package handlers binds the questionnaire commands to the application
// service.
package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"questionnaire-builder/application/commands"
	"questionnaire-builder/application/commands/bus"
	"questionnaire-builder/application/services"
	"questionnaire-builder/domain/core/valueobjects"
)

// QuestionnaireHandlers handles every questionnaire command.
type QuestionnaireHandlers struct {
	service *services.QuestionnaireService
	logger  *zap.Logger
}

// NewQuestionnaireHandlers creates the handler set
func NewQuestionnaireHandlers(service *services.QuestionnaireService, logger *zap.Logger) *QuestionnaireHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionnaireHandlers{service: service, logger: logger}
}

// Register binds each command type on b
func (h *QuestionnaireHandlers) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{&commands.CreateQuestionnaireCommand{}, typed(h.createQuestionnaire)},
		{&commands.DeleteQuestionnaireCommand{}, typed(h.deleteQuestionnaire)},
		{&commands.ImportQuestionnaireCommand{}, typed(h.importQuestionnaire)},
		{&commands.AddQuestionCommand{}, typed(h.addQuestion)},
		{&commands.UpdateQuestionCommand{}, typed(h.updateQuestion)},
		{&commands.ChangeQuestionTypeCommand{}, typed(h.changeQuestionType)},
		{&commands.DeleteQuestionCommand{}, typed(h.deleteQuestion)},
		{&commands.MoveQuestionCommand{}, typed(h.moveQuestion)},
		{&commands.CopyQuestionCommand{}, typed(h.copyQuestion)},
		{&commands.SwapQuestionTitlesCommand{}, typed(h.swapTitles)},
		{&commands.ConnectQuestionsCommand{}, typed(h.connect)},
		{&commands.DisconnectQuestionsCommand{}, typed(h.disconnect)},
		{&commands.SetCriteriaCommand{}, typed(h.setCriteria)},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func typed[C bus.Command](fn func(ctx context.Context, cmd C) error) bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(C)
		if !ok {
			return fmt.Errorf("unexpected command type %T", cmd)
		}
		return fn(ctx, c)
	})
}

func (h *QuestionnaireHandlers) createQuestionnaire(ctx context.Context, cmd *commands.CreateQuestionnaireCommand) error {
	return h.service.CreateQuestionnaire(ctx, cmd.QuestionnaireID, cmd.Metadata)
}

func (h *QuestionnaireHandlers) deleteQuestionnaire(ctx context.Context, cmd *commands.DeleteQuestionnaireCommand) error {
	return h.service.DeleteQuestionnaire(ctx, cmd.QuestionnaireID)
}

func (h *QuestionnaireHandlers) importQuestionnaire(ctx context.Context, cmd *commands.ImportQuestionnaireCommand) error {
	report, err := h.service.ImportQuestionnaire(ctx, cmd.QuestionnaireID, cmd.Data)
	if err != nil {
		return err
	}
	cmd.Result = report
	h.logger.Info("Questionnaire imported",
		zap.String("questionnaireID", cmd.QuestionnaireID),
		zap.Int("questions", report.Stats.Questions),
		zap.Int("diagnostics", len(report.Diagnostics)),
	)
	return nil
}

func (h *QuestionnaireHandlers) addQuestion(ctx context.Context, cmd *commands.AddQuestionCommand) error {
	_, err := h.service.AddQuestion(ctx, cmd.QuestionnaireID, cmd.QuestionID, cmd.Content())
	return err
}

func (h *QuestionnaireHandlers) updateQuestion(ctx context.Context, cmd *commands.UpdateQuestionCommand) error {
	_, err := h.service.UpdateQuestion(ctx, cmd.QuestionnaireID, cmd.QuestionID, cmd.Patch())
	return err
}

func (h *QuestionnaireHandlers) changeQuestionType(ctx context.Context, cmd *commands.ChangeQuestionTypeCommand) error {
	return h.service.ChangeQuestionType(ctx, cmd.QuestionnaireID, cmd.QuestionID, valueobjects.QuestionType(cmd.Type))
}

func (h *QuestionnaireHandlers) deleteQuestion(ctx context.Context, cmd *commands.DeleteQuestionCommand) error {
	return h.service.DeleteQuestion(ctx, cmd.QuestionnaireID, cmd.QuestionID)
}

func (h *QuestionnaireHandlers) moveQuestion(ctx context.Context, cmd *commands.MoveQuestionCommand) error {
	return h.service.MoveQuestion(ctx, cmd.QuestionnaireID, cmd.QuestionID, cmd.Direction)
}

func (h *QuestionnaireHandlers) copyQuestion(ctx context.Context, cmd *commands.CopyQuestionCommand) error {
	_, err := h.service.CopyQuestion(ctx, cmd.QuestionnaireID, cmd.QuestionID, cmd.NewQuestionID)
	return err
}

func (h *QuestionnaireHandlers) swapTitles(ctx context.Context, cmd *commands.SwapQuestionTitlesCommand) error {
	return h.service.SwapTitles(ctx, cmd.QuestionnaireID, cmd.First, cmd.Second)
}

func (h *QuestionnaireHandlers) connect(ctx context.Context, cmd *commands.ConnectQuestionsCommand) error {
	label, err := cmd.EdgeLabel()
	if err != nil {
		return err
	}
	return h.service.Connect(ctx, cmd.QuestionnaireID, cmd.Source, cmd.Target, label)
}

func (h *QuestionnaireHandlers) disconnect(ctx context.Context, cmd *commands.DisconnectQuestionsCommand) error {
	label, err := cmd.EdgeLabel()
	if err != nil {
		return err
	}
	return h.service.Disconnect(ctx, cmd.QuestionnaireID, cmd.Source, label)
}

func (h *QuestionnaireHandlers) setCriteria(ctx context.Context, cmd *commands.SetCriteriaCommand) error {
	list, err := cmd.CriteriaList()
	if err != nil {
		return err
	}
	return h.service.SetCriteria(ctx, cmd.QuestionnaireID, cmd.QuestionID, cmd.SlotBranch(), list)
}
