package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier/internal/shared"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", shared.Validationf("missing field"), http.StatusBadRequest},
		{"not found", shared.NotFoundf("invoice 7"), http.StatusNotFound},
		{"invalid transition", fmt.Errorf("%w: draft only", shared.ErrInvalidStatus), http.StatusUnprocessableEntity},
		{"conflict", fmt.Errorf("%w: duplicate number", shared.ErrConflict), http.StatusConflict},
		{"sequence unavailable", fmt.Errorf("%w: invoice/2026", shared.ErrSequenceUnavailable), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var problem ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			require.Equal(t, tc.status, problem.Status)
			require.NotEmpty(t, problem.Title)
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: connection refused"))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Empty(t, problem.Detail)
}
