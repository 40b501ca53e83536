package request

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/pkg/apperrors"
	"github.com/academyhq/academy-server-go/pkg/response"
)

// Handler is a last-chance middleware for handlers that push errors onto
// the gin context instead of writing a response themselves. Typed
// apperrors keep their status and message; anything else is classified.
func Handler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := collect(c.Errors)
		if err == nil {
			return
		}

		var typed *apperrors.Error
		if errors.As(err, &typed) {
			if len(typed.Fields) > 0 {
				response.ValidationError(c, typed.Message, typed.Fields)
				return
			}
			response.ErrorWithLog(logger, c, typed.Status, typed.Message, err)
			return
		}

		status, message := classify(err)
		response.ErrorWithLog(logger, c, status, message, err)
	}
}

func collect(errs []*gin.Error) error {
	list := make([]error, 0, len(errs))
	for _, item := range errs {
		if item != nil && item.Err != nil {
			list = append(list, item.Err)
		}
	}
	return errors.Join(list...)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "Resource not found"
	case strings.Contains(err.Error(), "invalid input syntax for type uuid"):
		return http.StatusBadRequest, "Invalid ID format"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
