package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/truongnh28/bookstore/domain"
	"github.com/truongnh28/bookstore/log"
)

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondError maps domain error kinds onto HTTP statuses. PartialCommit
// is kept apart from business aborts so 5xx alerts mean the system
// broke, not that a user ran out of balance.
func respondError(c *gin.Context, message string, err error) {
	logger := log.GetLogger(c.Request.Context())

	status := http.StatusInternalServerError
	var detail interface{} = err.Error()

	var partial *domain.PartialCommitError
	var unavailable *domain.UnavailableBooksError
	switch {
	case errors.As(err, &partial):
		logger.WithError(err).Errorf("%s: %s", message, err)
	case errors.As(err, &unavailable):
		status = http.StatusUnprocessableEntity
		detail = gin.H{
			"error_message": "unavailable books in cart",
			"books":         unavailable.BookIDs,
		}
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicateRequest),
		errors.Is(err, domain.ErrOutOfStock):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrIncompleteProfile),
		errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	default:
		logger.WithError(err).Errorf("%s: %s", message, err)
	}

	c.JSON(status, response{
		Success: false,
		Message: message,
		Error:   detail,
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response{
		Success: false,
		Message: "invalid request body",
		Error:   err.Error(),
	})
}
