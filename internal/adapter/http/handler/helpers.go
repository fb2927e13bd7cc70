package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
)

// ActorHeader carries the id of the user performing the request.
const ActorHeader = "X-Actor-ID"

var errBadQuery = errors.New("invalid query parameter")

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks for it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPostingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicatePosting):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNegativeResultingBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidMovementKind),
		errors.Is(err, domain.ErrInvalidMovement),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrDerivation),
		errors.Is(err, dto.ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, errBadQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseTimeQuery parses an optional RFC 3339 timestamp query parameter.
func parseTimeQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC 3339", errBadQuery, key)
	}
	return &t, nil
}

// postingFilterFromQuery reads from, to, category and direction.
func postingFilterFromQuery(r *http.Request) (domain.PostingFilter, error) {
	var filter domain.PostingFilter

	from, err := parseTimeQuery(r, "from")
	if err != nil {
		return filter, err
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		return filter, err
	}

	q := r.URL.Query()
	filter.From = from
	filter.To = to
	filter.Category = q.Get("category")
	filter.Direction = domain.Direction(q.Get("direction"))

	if filter.Direction != "" && !filter.Direction.IsValid() {
		return filter, fmt.Errorf("%w: direction %q", errBadQuery, filter.Direction)
	}
	return filter, nil
}

func actorID(r *http.Request) string {
	return r.Header.Get(ActorHeader)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
