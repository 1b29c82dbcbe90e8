package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"churchadmin/internal/models"
)

// Resource is the API collection of one record type
type Resource[T any] struct {
	c    *Client
	path string
}

func resource[T any](c *Client, kind models.Kind) *Resource[T] {
	return &Resource[T]{c: c, path: "/" + kind.Slug}
}

// List returns the records matching query; an empty query lists all of them
func (r *Resource[T]) List(ctx context.Context, query string) ([]T, error) {
	var q url.Values
	if query != "" {
		q = url.Values{"q": {query}}
	}
	var out []T
	if err := r.c.do(ctx, http.MethodGet, r.path, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one record. A missing record is an *APIError with status 404.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodGet, r.path+"/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create stores a new record and returns it with its assigned ID
func (r *Resource[T]) Create(ctx context.Context, record *T) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPost, r.path, nil, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends every field of record
func (r *Resource[T]) Update(ctx context.Context, id string, record *T) (*T, error) {
	return r.Patch(ctx, id, record)
}

// Patch changes only the supplied fields, for example map[string]any{"phone": "555"}
func (r *Resource[T]) Patch(ctx context.Context, id string, fields any) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPatch, r.path+"/"+url.PathEscape(id), nil, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a record
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil, nil)
}

// Baptisms is the baptism register. The other accessors below follow the same shape.
func (c *Client) Baptisms() *Resource[models.Baptism] {
	return resource[models.Baptism](c, models.KindBaptism)
}

func (c *Client) Burials() *Resource[models.Burial] {
	return resource[models.Burial](c, models.KindBurial)
}

func (c *Client) Marriages() *Resource[models.Marriage] {
	return resource[models.Marriage](c, models.KindMarriage)
}

func (c *Client) ChoirMembers() *Resource[models.ChoirMember] {
	return resource[models.ChoirMember](c, models.KindChoirMember)
}

func (c *Client) YouthMembers() *Resource[models.YouthMember] {
	return resource[models.YouthMember](c, models.KindYouthMember)
}

func (c *Client) ZonalLeaders() *Resource[models.ZonalLeader] {
	return resource[models.ZonalLeader](c, models.KindZonalLeader)
}

func (c *Client) UnitLeaders() *Resource[models.UnitLeader] {
	return resource[models.UnitLeader](c, models.KindUnitLeader)
}

func (c *Client) ParishCommittee() *Resource[models.ParishCommitteeMember] {
	return resource[models.ParishCommitteeMember](c, models.KindParishCommitteeMember)
}

func (c *Client) SundaySchoolTeachers() *Resource[models.SundaySchoolTeacher] {
	return resource[models.SundaySchoolTeacher](c, models.KindSundaySchoolTeacher)
}

func (c *Client) MemberRegistrations() *Resource[models.MemberRegistration] {
	return resource[models.MemberRegistration](c, models.KindMemberRegistration)
}

// Records returns the collection named by slug with records left as raw JSON
func (c *Client) Records(slug string) (*Resource[json.RawMessage], error) {
	kind, ok := models.KindBySlug(slug)
	if !ok {
		return nil, fmt.Errorf("unknown record type %q", slug)
	}
	return resource[json.RawMessage](c, kind), nil
}

// ResolveZonalLeader returns the zonal leader of zone. A zone without a leader is an *APIError with status 404.
func (c *Client) ResolveZonalLeader(ctx context.Context, zone string) (*models.ZonalLeader, error) {
	var leader models.ZonalLeader
	if err := c.do(ctx, http.MethodGet, "/zonal-leaders/resolve", url.Values{"zone": {zone}}, nil, &leader); err != nil {
		return nil, err
	}
	return &leader, nil
}

// DashboardTile is one record count
type DashboardTile struct {
	Slug   string `json:"slug"`
	Label  string `json:"label"`
	Total  int    `json:"total"`
	Active *int   `json:"active,omitempty"`
}

// Dashboard is the aggregate record counts
type Dashboard struct {
	Tiles          []DashboardTile `json:"tiles"`
	Children       int             `json:"children"`
	DuplicateZones []string        `json:"duplicate_zones"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Dashboard returns the record counts shown on the console dashboard
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
