package errors

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"questionnaire-builder/pkg/common"
)

// ErrorHandler handles errors and sends appropriate HTTP responses
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
		debug:  debug,
	}
}

// Handle processes an error and sends an HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := ToAppError(err)

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	info := common.ErrorInfo{
		Type:    string(appErr.Type),
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if h.debug && appErr.StackTrace != "" {
		details := make(map[string]interface{}, len(info.Details)+1)
		for k, v := range info.Details {
			details[k] = v
		}
		details["stack_trace"] = appErr.StackTrace
		info.Details = details
	}

	h.logError(r, appErr, status)
	common.RespondError(w, r, status, info)
}

func (h *ErrorHandler) logError(r *http.Request, err *AppError, status int) {
	fields := []zap.Field{
		zap.String("error_type", string(err.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", common.ExtractRequestID(r)),
	}
	if err.Code != "" {
		fields = append(fields, zap.String("error_code", err.Code))
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}

	switch {
	case status >= 500:
		h.logger.Error(err.Message, fields...)
	case status >= 400:
		h.logger.Warn(err.Message, fields...)
	default:
		h.logger.Info(err.Message, fields...)
	}
}

// Middleware converts panics into internal error responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
