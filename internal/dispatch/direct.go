package dispatch

import (
	"context"
	"net/http"

	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
	"github.com/vyrodovalexey/avroute/internal/util"
)

// SimulatedResponse is a snapshot of a dispatched response.
type SimulatedResponse struct {
	Body        string
	StatusCode  int
	ContentType string
}

// Snapshot captures the user-visible parts of res.
func Snapshot(res *router.Response) SimulatedResponse {
	return SimulatedResponse{
		Body:        res.Body(),
		StatusCode:  res.Status(),
		ContentType: res.ContentType(),
	}
}

// DirectRequest dispatches a request without a connection. target may carry
// a query string; a nil body is treated as empty. It never panics.
func (d *Dispatcher) DirectRequest(
	method, target string,
	body *string,
	headers map[string]string,
) (resp SimulatedResponse) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("direct request panic recovered",
				observability.String("method", method),
				observability.String("target", target),
				observability.Any("error", recovered),
			)
			resp = SimulatedResponse{
				Body:        util.BodyInternalError,
				StatusCode:  http.StatusInternalServerError,
				ContentType: router.DefaultContentType,
			}
		}
	}()

	var b string
	if body != nil {
		b = *body
	}

	h := make(http.Header, len(headers))
	for name, value := range headers {
		h.Set(name, value)
	}

	req := router.NewRequest(method, target, b, h)
	return Snapshot(d.Dispatch(context.Background(), req))
}
