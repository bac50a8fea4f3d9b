// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/query"
)

// MaxLimit caps the "limit" query parameter on every list endpoint.
const MaxLimit = 500

// Limit parses the "limit" query parameter. It returns 0 when the parameter
// is absent, leaving the store's default in effect.
func Limit(r *http.Request) (int, error) {
	s := query.Get(r, "limit")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > MaxLimit {
		return 0, apperr.BadRequest("limit must be between 1 and %d", MaxLimit)
	}
	return n, nil
}
