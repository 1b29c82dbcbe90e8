package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"churchadmin/internal/models"
)

// recordAPI is the record service behaviour the resource handlers need
type recordAPI[E models.Entity] interface {
	Kind() models.Kind
	Create(ctx context.Context, e E) error
	Get(ctx context.Context, id string) (E, error)
	List(ctx context.Context, query string) ([]E, error)
	Update(ctx context.Context, e E) error
	Delete(ctx context.Context, id string) error
}

func newRecord[T any]() *T {
	return new(T)
}

type resource[E models.Entity] struct {
	server *Server
	svc    recordAPI[E]
	blank  func() E
}

// registerResource adds the list, create, get, patch and delete routes of one record type
func registerResource[E models.Entity](r *mux.Router, s *Server, svc recordAPI[E], blank func() E) {
	res := &resource[E]{server: s, svc: svc, blank: blank}
	base := "/" + svc.Kind().Slug
	r.HandleFunc(base, res.list).Methods(http.MethodGet)
	r.HandleFunc(base, res.create).Methods(http.MethodPost)
	r.HandleFunc(base+"/{id}", res.get).Methods(http.MethodGet)
	r.HandleFunc(base+"/{id}", res.patch).Methods(http.MethodPatch)
	r.HandleFunc(base+"/{id}", res.delete).Methods(http.MethodDelete)
}

func (res *resource[E]) list(w http.ResponseWriter, r *http.Request) {
	records, err := res.svc.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		res.server.respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (res *resource[E]) create(w http.ResponseWriter, r *http.Request) {
	e := res.blank()
	if err := decodeJSON(w, r, e); err != nil {
		res.server.respondWithError(w, r, err)
		return
	}
	*e.Meta() = models.Record{}

	if err := res.svc.Create(r.Context(), e); err != nil {
		res.server.respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

func (res *resource[E]) get(w http.ResponseWriter, r *http.Request) {
	e, err := res.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		res.server.respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

// patch applies the supplied fields onto the stored record. Fields absent from
// the body keep their stored values. A supplied children array replaces all children.
func (res *resource[E]) patch(w http.ResponseWriter, r *http.Request) {
	existing, err := res.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		res.server.respondWithError(w, r, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		res.server.respondWithError(w, r, err)
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		res.server.respondWithError(w, r, errBadRequestf(err))
		return
	}
	if _, ok := fields["children"]; ok {
		if reg, ok := any(existing).(*models.MemberRegistration); ok {
			reg.Children = nil
		}
	}

	meta := *existing.Meta()
	if err := json.Unmarshal(body, existing); err != nil {
		res.server.respondWithError(w, r, errBadRequestf(err))
		return
	}
	*existing.Meta() = meta

	if err := res.svc.Update(r.Context(), existing); err != nil {
		res.server.respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

func (res *resource[E]) delete(w http.ResponseWriter, r *http.Request) {
	if err := res.svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		res.server.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
