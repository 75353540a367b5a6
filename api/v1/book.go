package v1

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/avosk/shelfmark/http/request"
	"github.com/avosk/shelfmark/http/response"
	"github.com/avosk/shelfmark/library"
	"github.com/avosk/shelfmark/log"
	"github.com/avosk/shelfmark/model"
	"github.com/avosk/shelfmark/worker"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (h *Handler) addBook(w http.ResponseWriter, r *http.Request) {
	var create model.Book
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	book, err := h.service.AddBook(&create)
	if err != nil {
		if errors.Is(err, library.ErrValidation) {
			response.BadRequest(w, r, err)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	response.Created(w, r, book)
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")

	book, err := h.service.GetBook(id)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			response.NotFound(w, r)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, book)
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")

	if err := h.service.DeleteBook(id); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			response.NotFound(w, r)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

type progressRequest struct {
	Page   int     `json:"page"`
	Status *string `json:"status,omitempty"`
}

func (h *Handler) updateProgress(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	var override *model.Status
	if req.Status != nil {
		s := model.Status(*req.Status)
		override = &s
	}

	book, err := h.service.UpdateProgress(id, req.Page, override)
	if err != nil {
		switch {
		case errors.Is(err, library.ErrValidation):
			response.BadRequest(w, r, err)
		case errors.Is(err, library.ErrNotFound):
			response.NotFound(w, r)
		default:
			response.ServerError(w, r, err)
		}
		return
	}

	response.OK(w, r, book)
}

func (h *Handler) resetProgress(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")

	book, err := h.service.ResetToRead(id)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			response.NotFound(w, r)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, book)
}

type bookMetricsResponse struct {
	BookID              int        `json:"book_id"`
	ProgressPercentage  float64    `json:"progress_percentage"`
	PagesPerDay         float64    `json:"pages_per_day"`
	EstimatedFinishDate *time.Time `json:"estimated_finish_date,omitempty"`
	DaysRemaining       *int       `json:"days_remaining,omitempty"`
}

func (h *Handler) bookMetrics(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")

	book, err := h.service.GetBook(id)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			response.NotFound(w, r)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	// One captured now keeps the derived numbers consistent with each other.
	now := time.Now().UTC()
	response.OK(w, r, bookMetricsResponse{
		BookID:              book.ID,
		ProgressPercentage:  book.ProgressPercentage(),
		PagesPerDay:         book.PagesPerDay(now),
		EstimatedFinishDate: book.EstimatedFinishDate(now),
		DaysRemaining:       book.DaysRemaining(now),
	})
}

type searchResponse struct {
	Books []*model.Book `json:"books"`
	Total int           `json:"total"`
}

func (h *Handler) searchBooks(w http.ResponseWriter, r *http.Request) {
	filters := model.SearchFilters{
		Author:    request.QueryStringParam(r, "author", ""),
		SortBy:    model.SortKey(request.QueryStringParam(r, "sort", string(model.SortByLastUpdated))),
		Ascending: request.QueryStringParam(r, "order", "desc") == "asc",
	}
	if hasProgress := request.QueryBoolParam(r, "has_progress"); hasProgress != nil {
		filters.HasProgress = *hasProgress
	}
	if statuses := request.QueryStringParam(r, "status", ""); statuses != "" {
		for _, s := range strings.Split(statuses, ",") {
			status := model.Status(strings.TrimSpace(s))
			if !status.Valid() {
				response.BadRequest(w, r, errors.Errorf("unknown status: %s", s))
				return
			}
			filters.Statuses = append(filters.Statuses, status)
		}
	}

	books, total, err := h.service.Search(request.QueryStringParam(r, "q", ""), filters)
	if err != nil {
		if errors.Is(err, library.ErrValidation) {
			response.BadRequest(w, r, err)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, searchResponse{Books: books, Total: total})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats()
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, stats)
}

type refreshResponse struct {
	Queued int `json:"queued"`
}

// refreshBook queues a metadata refresh for one book.
func (h *Handler) refreshBook(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")

	book, err := h.service.GetBook(id)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			response.NotFound(w, r)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	if err := h.queueRefresh(book.ID); err != nil {
		response.ServerError(w, r, err)
		return
	}

	response.Accepted(w, r, refreshResponse{Queued: 1})
}

// refreshAllBooks queues a metadata refresh for every book with missing
// metadata.
func (h *Handler) refreshAllBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.ListBooksMissingMetadata()
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	queued := 0
	for _, book := range books {
		if err := h.queueRefresh(book.ID); err != nil {
			response.ServerError(w, r, err)
			return
		}
		queued++
	}

	response.Accepted(w, r, refreshResponse{Queued: queued})
}

func (h *Handler) queueRefresh(bookID int) error {
	job, err := h.store.AddJob(model.Job{
		BookID: bookID,
		Type:   worker.JobTypeMetadataRefresh,
		Status: model.JobStatusPending,
	})
	if err != nil {
		return err
	}

	// Hand the job to the pool without blocking the request.
	go h.refreshPool.Push(*job)
	return nil
}
