package httpapi_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/catalystgov/snapshotcore/core"
	"github.com/catalystgov/snapshotcore/httpapi"
	"github.com/catalystgov/snapshotcore/internal/blocking"
	"github.com/catalystgov/snapshotcore/kv/boltkv"
)

func newTestStack(t *testing.T) (chi.Router, chi.Router) {
	t.Helper()
	db, err := boltkv.OpenTemp()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reader, writer, err := core.New(db, zap.NewNop())
	require.NoError(t, err)

	pool := blocking.NewPool(4)
	return httpapi.ReaderRoutes(reader, pool, zap.NewNop()), httpapi.UpdateRoutes(writer, pool, zap.NewNop())
}

// S6 — a malformed voting key on lookup yields 422, not a 500 or panic.
func TestGetVoterMalformedKeyIs422(t *testing.T) {
	readerRoutes, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/voter/tag1/not-hex", nil)
	rec := httptest.NewRecorder()
	readerRoutes.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetVoterWrongLengthKeyIs422(t *testing.T) {
	readerRoutes, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/voter/tag1/aabb", nil)
	rec := httptest.NewRecorder()
	readerRoutes.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetVoterUnknownTagIs404(t *testing.T) {
	readerRoutes, _ := newTestStack(t)

	votingKey := make([]byte, core.VotingKeyLen*2)
	for i := range votingKey {
		votingKey[i] = '0'
	}
	req := httptest.NewRequest(http.MethodGet, "/voter/nope/"+string(votingKey), nil)
	rec := httptest.NewRecorder()
	readerRoutes.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutThenGetRoundTrip(t *testing.T) {
	readerRoutes, updateRoutes := newTestStack(t)

	body := []byte(`[{"hir":{"voting_key":"` + zeroKeyHex() + `","voting_group":"g","voting_power":7}}]`)
	putReq := httptest.NewRequest(http.MethodPut, "/tag1", bytes.NewReader(body))
	putRec := httptest.NewRecorder()
	updateRoutes.ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusOK, putRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/voter/tag1/"+zeroKeyHex(), nil)
	getRec := httptest.NewRecorder()
	readerRoutes.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	require.Contains(t, getRec.Body.String(), `"voting_group":"g"`)
}

func TestListTagsEmptyIsEmptyArray(t *testing.T) {
	readerRoutes, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	readerRoutes.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func zeroKeyHex() string {
	out := make([]byte, core.VotingKeyLen*2)
	for i := range out {
		out[i] = '0'
	}
	return string(out)
}
