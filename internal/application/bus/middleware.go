package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

// LoggingMiddleware пишет имя сообщения, длительность и ошибку.
// Ошибки бизнес-правил и валидации пишутся на уровне Info, остальные - Error.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(kind string, next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, msg any) (any, error) {
			start := time.Now()
			res, err := next.Handle(ctx, msg)

			fields := []zap.Field{
				zap.String("kind", kind),
				zap.String("name", MessageName(msg)),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case err == nil:
				logger.Debug("message handled", fields...)
			case apperrors.GetAppError(err) != nil && !apperrors.IsInternal(err):
				logger.Info("message rejected", append(fields, zap.Error(err))...)
			default:
				logger.Error("message failed", append(fields, zap.Error(err))...)
			}
			return res, err
		})
	}
}

// ValidationMiddleware проверяет теги validate у сообщения до вызова обработчика.
func ValidationMiddleware(v *validator.Validate) Middleware {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return func(kind string, next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, msg any) (any, error) {
			if err := v.Struct(msg); err != nil {
				if verrs, ok := err.(validator.ValidationErrors); ok {
					return nil, validationError(verrs)
				}
				// InvalidValidationError: сообщение не структура, проверять нечего.
			}
			return next.Handle(ctx, msg)
		})
	}
}

func validationError(verrs validator.ValidationErrors) *apperrors.AppError {
	parts := make([]string, 0, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		fields = append(fields, fe.Field())
	}
	return apperrors.NewArgumentInvalid("Invalid input: "+strings.Join(parts, ", ")+".").
		WithDetail("fields", fields)
}
