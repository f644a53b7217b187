package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusAccepted, map[string]int{"id": 7})

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, float64(7), decode(t, rec)["id"])
	})

	t.Run("nil writes only the status", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestErrorShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(http.ResponseWriter)
		wantStatus int
		wantKey    string
		wantValue  any
	}{
		{
			name:       "error",
			write:      func(w http.ResponseWriter) { WriteError(w, http.StatusBadRequest, "Bid too low") },
			wantStatus: http.StatusBadRequest,
			wantKey:    "error",
			wantValue:  "Bid too low",
		},
		{
			name:       "detail",
			write:      func(w http.ResponseWriter) { WriteDetail(w, http.StatusUnauthorized, "Invalid token.") },
			wantStatus: http.StatusUnauthorized,
			wantKey:    "detail",
			wantValue:  "Invalid token.",
		},
		{
			name:       "not found",
			write:      WriteNotFound,
			wantStatus: http.StatusNotFound,
			wantKey:    "detail",
			wantValue:  "Not found.",
		},
		{
			name:       "field errors",
			write:      func(w http.ResponseWriter) { WriteFieldErrors(w, "a", "b") },
			wantStatus: http.StatusBadRequest,
			wantKey:    "non_field_errors",
			wantValue:  []any{"a", "b"},
		},
		{
			name:       "success",
			write:      func(w http.ResponseWriter) { WriteSuccess(w, "User created successfully") },
			wantStatus: http.StatusOK,
			wantKey:    "success",
			wantValue:  "User created successfully",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()

			tt.write(rec)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			assert.Len(t, body, 1)
			assert.Equal(t, tt.wantValue, body[tt.wantKey])
		})
	}
}

func TestWriteCreatedAndOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteCreated(rec, map[string]string{"name": "Books"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Books", decode(t, rec)["name"])

	rec = httptest.NewRecorder()
	WriteOK(rec, []int{1, 2})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[1,2]", rec.Body.String())
}
