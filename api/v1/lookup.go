package v1

import (
	"net/http"

	"github.com/avosk/shelfmark/http/request"
	"github.com/avosk/shelfmark/http/response"
	"github.com/avosk/shelfmark/library"
	"github.com/avosk/shelfmark/metadata"
	"github.com/pkg/errors"
)

// lookupMetadata resolves external metadata for ?isbn= or ?q=.
func (h *Handler) lookupMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var result *metadata.Result
	var err error
	switch {
	case request.HasQueryParam(r, "isbn"):
		result, err = h.service.LookupISBN(ctx, request.QueryStringParam(r, "isbn", ""))
	case request.HasQueryParam(r, "q"):
		result, err = h.service.SearchMetadata(ctx, request.QueryStringParam(r, "q", ""))
	default:
		response.BadRequest(w, r, errors.New("either isbn or q is required"))
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, library.ErrValidation):
			response.BadRequest(w, r, err)
		case errors.Is(err, metadata.ErrNoResult):
			response.NotFound(w, r)
		case errors.Is(err, metadata.ErrStale):
			// A newer lookup superseded this one, nothing to show.
			response.NoContent(w, r)
		default:
			response.ServerError(w, r, err)
		}
		return
	}

	response.OK(w, r, result)
}
