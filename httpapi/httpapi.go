// Package httpapi binds the snapshot core's read and write operations to
// HTTP routes, as two independently mountable chi.Router filter groups
// (ReaderRoutes, UpdateRoutes). Collaborators mount these under whatever
// root they like; this package never starts its own listener.
package httpapi

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/catalystgov/snapshotcore/core"
	"github.com/catalystgov/snapshotcore/internal/blocking"
)

// voterEntryResponse is the wire shape of one element of a voter lookup's
// JSON array response.
type voterEntryResponse struct {
	VotingPower      uint64 `json:"voting_power"`
	VotingGroup      string `json:"voting_group"`
	DelegationsPower uint64 `json:"delegations_power"`
	DelegationsCount uint64 `json:"delegations_count"`
}

// ReaderRoutes registers the reader filter group:
//
//	GET /voter/{tag}/{votingKey}  -> 200 JSON array / 404 / 422 / 500
//	GET /                         -> 200 JSON array of tag names / 500
//
// Both handlers run the underlying store operation on pool, a bounded
// goroutine pool, so a burst of reads cannot monopolize whatever blocking
// I/O the backend performs.
func ReaderRoutes(ctx core.SharedContext, pool *blocking.Pool, log *zap.Logger) chi.Router {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Get("/voter/{tag}/{votingKey}", getVoterHandler(ctx, pool, log))
	r.Get("/", listTagsHandler(ctx, pool, log))
	return r
}

// UpdateRoutes registers the update filter group:
//
//	PUT /{tag}  -> 200 empty body / 500
//
// handle is the one logical writer; it may also be in concurrent use by a
// watcher.Watcher over the same store, and serializes against it
// internally — no mutex is needed here.
func UpdateRoutes(handle *core.UpdateHandle, pool *blocking.Pool, log *zap.Logger) chi.Router {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Put("/{tag}", putSnapshotHandler(handle, pool, log))
	return r
}

func getVoterHandler(sc core.SharedContext, pool *blocking.Pool, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := chi.URLParam(r, "tag")
		keyHex := chi.URLParam(r, "votingKey")

		votingKey, err := hex.DecodeString(keyHex)
		if err != nil || len(votingKey) != core.VotingKeyLen {
			writeError(w, http.StatusUnprocessableEntity, "malformed voting key")
			return
		}

		type result struct {
			infos []core.VoterInfo
			found bool
		}
		res, err := blocking.Submit(r.Context(), pool, func(ctx context.Context) (result, error) {
			infos, found, err := sc.GetVotersInfo(ctx, tag, votingKey)
			return result{infos: infos, found: found}, err
		})
		if err != nil {
			log.Error("voter lookup failed", zap.String("tag", tag), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "backend error")
			return
		}
		if !res.found {
			writeError(w, http.StatusNotFound, "unknown tag")
			return
		}

		out := make([]voterEntryResponse, len(res.infos))
		for i, vi := range res.infos {
			out[i] = voterEntryResponse{
				VotingPower:      vi.VotingPower,
				VotingGroup:      vi.VotingGroup,
				DelegationsPower: vi.DelegationsPower,
				DelegationsCount: vi.DelegationsCount,
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listTagsHandler(sc core.SharedContext, pool *blocking.Pool, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := blocking.Submit(r.Context(), pool, func(ctx context.Context) ([]string, error) {
			return sc.GetTags(ctx)
		})
		if err != nil {
			log.Error("tag enumeration failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "backend error")
			return
		}
		if tags == nil {
			tags = []string{}
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

func putSnapshotHandler(handle *core.UpdateHandle, pool *blocking.Pool, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := chi.URLParam(r, "tag")

		var input core.SnapshotInfoInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			// Malformed writer input surfaces as 500, not 4xx.
			writeError(w, http.StatusInternalServerError, errors.Wrap(err, "invalid request body").Error())
			return
		}

		_, err := blocking.Submit(r.Context(), pool, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, handle.Update(ctx, tag, input)
		})
		if err != nil {
			log.Error("snapshot update failed", zap.String("tag", tag), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
