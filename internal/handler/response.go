package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"seungpyo.lee/BlogPlatform/internal/domain"
	"seungpyo.lee/BlogPlatform/internal/model"
	"seungpyo.lee/BlogPlatform/pkg/logger"
	"seungpyo.lee/BlogPlatform/pkg/util"
)

const serverErrorMessage = "Server Error"

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, model.SuccessResponse{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{Success: false, Error: msg})
}

// respondError maps domain errors to HTTP statuses. Anything unrecognised is
// logged and reported as a generic server error.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondMessage(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		respondMessage(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrValidation):
		respondMessage(c, http.StatusBadRequest, err.Error())
	default:
		log.With("request_id", util.GetRequestID(c)).Error("request failed",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"error", err,
		)
		respondMessage(c, http.StatusInternalServerError, serverErrorMessage)
	}
}

// bindError turns a gin binding failure into a readable 400 message.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}
	return "invalid request body"
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s long", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
