package handling

import (
	"errors"
	"net/http"

	"productos_catalog/lib"

	"github.com/MonkyMars/gecho"
)

// HandleError logs err and writes the matching envelope. Only not-found and validation errors
// are distinguished, every other failure becomes a generic 500.
func HandleError(err error, msg string, logger *gecho.Logger, w http.ResponseWriter) {
	var ve *lib.ValidationError
	switch {
	case errors.Is(err, lib.ErrNotFound):
		gecho.NotFound(w, gecho.WithMessage(msg), gecho.Send())
		return
	case errors.As(err, &ve):
		gecho.BadRequest(w, gecho.WithMessage(ve.Error()), gecho.WithData(ve.Errors), gecho.Send())
		return
	}

	logger.Error("An error occurred", gecho.Field("error", err), gecho.Field("msg", msg), gecho.WithCallerSkip(3))

	gecho.InternalServerError(w, gecho.Send())
}
