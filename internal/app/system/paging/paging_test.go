package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		def   int
		want  int64
	}{
		{"", 20, 20},
		{"?limit=5", 20, 5},
		{"?limit=0", 20, 20},
		{"?limit=-3", 20, 20},
		{"?limit=abc", 20, 20},
		{"?limit=1000", 20, MaxPageSize},
		{"", 0, PageSize},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/groups"+tt.query, nil)
		if got := ParseLimit(r, tt.def); got != tt.want {
			t.Errorf("ParseLimit(%q, %d) = %d, want %d", tt.query, tt.def, got, tt.want)
		}
	}
}
