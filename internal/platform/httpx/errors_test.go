package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: name required", ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: no token", ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w: admins only", ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: request 9", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: username", ErrDuplicate), http.StatusConflict},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code)

		var problem ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		require.Equal(t, tc.status, problem.Status)
		require.Equal(t, tc.err.Error(), problem.Detail)
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "connection refused")
}
