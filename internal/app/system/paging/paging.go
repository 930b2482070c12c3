// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by list endpoints.
const PageSize = 50

// MaxPageSize caps the ?limit= a client may ask for.
const MaxPageSize = 200

// ParseLimit reads the "limit" query parameter. Missing, invalid or
// non-positive values give def; values above MaxPageSize are clamped.
func ParseLimit(r *http.Request, def int) int64 {
	if def <= 0 {
		def = PageSize
	}
	s := query.Get(r, "limit")
	if s == "" {
		return int64(def)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return int64(def)
	}
	if n > MaxPageSize {
		n = MaxPageSize
	}
	return int64(n)
}
