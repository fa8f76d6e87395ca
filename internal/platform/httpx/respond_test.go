package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProblemDerivesTypeURI(t *testing.T) {
	rec := httptest.NewRecorder()
	Problem(rec, http.StatusConflict, "Insufficient Stock", "adjustment would drive quantity negative")

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var pd ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	require.Equal(t, problemTypeBase+"insufficient-stock", pd.Type)
	require.Equal(t, "Insufficient Stock", pd.Title)
	require.Equal(t, http.StatusConflict, pd.Status)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Delta int64 `json:"delta"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"delta": 1, "detla": 2}`))
	require.Error(t, DecodeJSON(req, &target))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"delta": 1}`))
	require.NoError(t, DecodeJSON(req, &target))
	require.Equal(t, int64(1), target.Delta)
}
