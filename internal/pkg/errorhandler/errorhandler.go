package errorhandler

import (
	"context"
	"net/http"

	"github.com/agroci/agroci-api/internal/pkg/apperr"
	"github.com/agroci/agroci-api/internal/pkg/logger"
	"github.com/agroci/agroci-api/internal/pkg/response"
)

// Write translates err into a flat {error, code} body. Server-side kinds
// are logged with the underlying cause; client errors at warn level.
func Write(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	logRequestError(ctx, status, kind, err)
	response.Fail(w, status, string(kind), apperr.MessageOf(err))
}

// WriteEnvelope is Write for endpoints using the {success, error} envelope.
func WriteEnvelope(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	logRequestError(ctx, status, kind, err)
	response.Error(w, status, string(kind), apperr.MessageOf(err))
}

func logRequestError(ctx context.Context, status int, kind apperr.Kind, err error) {
	l := logger.FromContext(ctx)
	event := l.Warn()
	if status >= http.StatusInternalServerError {
		event = l.Error()
	}
	event.Err(err).
		Str("error_code", string(kind)).
		Int("status_code", status).
		Msg("Request error")
}
