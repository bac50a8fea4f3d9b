package paging

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
)

func TestLimit(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		want    int
		wantErr bool
	}{
		{"absent", "/", 0, false},
		{"valid", "/?limit=25", 25, false},
		{"max", "/?limit=500", MaxLimit, false},
		{"zero", "/?limit=0", 0, true},
		{"too large", "/?limit=501", 0, true},
		{"not a number", "/?limit=ten", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Limit(httptest.NewRequest("GET", tt.target, nil))
			if tt.wantErr {
				if !apperr.Is(err, apperr.CodeBadRequest) {
					t.Errorf("expected bad_request, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Limit() = %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}
