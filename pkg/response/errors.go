package response

import (
	"errors"
	"net/http"

	"cakery_api/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// FromError maps a service error onto the envelope. Unrecognized errors
// become a generic 500 so internals never leak to the client.
func FromError(c *gin.Context, err error) {
	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
		permission *apperr.PermissionError
		gateway    *apperr.PaymentGatewayError
		phone      *apperr.InvalidPhoneNumberError
	)

	switch {
	case errors.As(err, &phone):
		Error(c, http.StatusBadRequest, ErrInvalidPhone, phone.Error())
	case errors.As(err, &validation):
		Error(c, http.StatusBadRequest, ErrInvalidParam, validation.Error())
	case errors.As(err, &notFound):
		Error(c, http.StatusNotFound, ErrOrderNotFound, notFound.Error())
	case errors.As(err, &permission):
		Error(c, http.StatusForbidden, ErrNoPermission, permission.Error())
	case errors.As(err, &gateway):
		Error(c, http.StatusBadRequest, ErrPaymentGateway, "Payment failed: "+gateway.Error())
	default:
		Error(c, http.StatusInternalServerError, ErrServerInternal, "internal server error")
	}
}
