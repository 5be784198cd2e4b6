package main

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/bjaus/resource"
)

type user struct {
	ID      int
	Name    string
	Age     int
	Tags    []string
	Created time.Time
}

// Serialize renders the user for the wire.
func (u *user) Serialize() any {
	return map[string]any{
		"id":      u.ID,
		"name":    u.Name,
		"age":     u.Age,
		"tags":    u.Tags,
		"created": u.Created.Format(time.RFC3339),
	}
}

// userView documents the serialized user.
type userView struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Tags    []string `json:"tags,omitempty"`
	Created string   `json:"created" jsonschema:"format=date-time"`
}

type store struct {
	mu     sync.RWMutex
	users  map[int]*user
	nextID int
}

func newStore() *store {
	return &store{users: make(map[int]*user), nextID: 1}
}

func (s *store) list(limit int, tag string) []*user {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*user, 0, len(s.users))
	for _, u := range s.users {
		if tag != "" && !slices.Contains(u.Tags, tag) {
			continue
		}
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b *user) int { return cmp.Compare(a.ID, b.ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *store) get(id int) (*user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *store) put(u *user) *user {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID
		s.nextID++
		u.Created = time.Now().UTC()
	}
	s.users[u.ID] = u
	return u
}

func (s *store) remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	delete(s.users, id)
	return ok
}

// Users is the users resource.
type Users struct {
	resource.Base
	store    *store
	readOnly bool
}

// Routes declares the users handler methods.
func (u *Users) Routes() []resource.Route {
	id := resource.Param[int]("id", resource.Doc("User ID"), resource.Rules("min=1"))
	fields := resource.WithParams(
		resource.Param[string]("name", resource.Doc("Display name"), resource.Rules("min=1,max=64")),
		resource.Param[int]("age", resource.Doc("Age in years"), resource.Rules("min=0,max=150")),
		resource.Param[[]string]("tags", resource.Doc("Labels")),
	)

	return []resource.Route{
		resource.Get((*Users).List,
			resource.WithParams(
				resource.Param[int]("limit", resource.Doc("Maximum number of users"), resource.Rules("min=1,max=100")),
				resource.Param[string]("tag", resource.Doc("Only users with this tag")),
			),
			resource.WithReturns([]userView{}),
		),
		resource.Get((*Users).Show, resource.WithPath(id), resource.WithReturns(userView{})),
		resource.Post((*Users).Create, fields, resource.WithReturns(userView{})),
		resource.Put((*Users).Update, resource.WithPath(id), fields, resource.WithReturns(userView{})),
		resource.Delete((*Users).Remove, resource.WithPath(id)),
	}
}

// Prepare rejects writes while the service is read-only.
func (u *Users) Prepare(_ context.Context, req *resource.Request) any {
	if u.readOnly && req.Method != http.MethodGet && req.Method != http.MethodHead {
		resp := resource.NewResponse(http.StatusServiceUnavailable, nil, &resource.ProblemDetail{
			Title:  "Read only",
			Status: http.StatusServiceUnavailable,
			Detail: "the service is in read-only mode",
		})
		resp.Header.Set("Content-Type", resource.MediaTypeProblem)
		return resp
	}
	return req
}

// List returns users in ID order.
func (u *Users) List(_ context.Context, args *resource.Args) (any, error) {
	limit := resource.OptionalOr(args, "limit", 20)
	tag := resource.OptionalOr(args, "tag", "")
	return u.store.list(limit, tag), nil
}

// Show returns one user.
func (u *Users) Show(_ context.Context, args *resource.Args) (any, error) {
	id := resource.Required[int](args, 0)
	usr, ok := u.store.get(id)
	if !ok {
		return nil, resource.Errorf(http.StatusNotFound, "user %d not found", id)
	}
	return usr, nil
}

// Create adds a user.
// Fields come from a form body or the query string.
func (u *Users) Create(_ context.Context, args *resource.Args) (any, error) {
	name, ok := resource.Optional[string](args, "name")
	if !ok {
		return nil, resource.Error(http.StatusUnprocessableEntity, "name is required")
	}
	usr := u.store.put(&user{
		Name: name,
		Age:  resource.OptionalOr(args, "age", 0),
		Tags: resource.OptionalOr[[]string](args, "tags", nil),
	})

	resp := resource.NewResponse(http.StatusCreated, nil, usr)
	resp.Header.Set("Location", "/v1/users/"+strconv.Itoa(usr.ID))
	return resp, nil
}

// Update changes the given fields of a user.
func (u *Users) Update(_ context.Context, args *resource.Args) (any, error) {
	id := resource.Required[int](args, 0)
	usr, ok := u.store.get(id)
	if !ok {
		return nil, resource.Errorf(http.StatusNotFound, "user %d not found", id)
	}

	updated := *usr
	if name, ok := resource.Optional[string](args, "name"); ok {
		updated.Name = name
	}
	if age, ok := resource.Optional[int](args, "age"); ok {
		updated.Age = age
	}
	if tags, ok := resource.Optional[[]string](args, "tags"); ok {
		updated.Tags = tags
	}
	return u.store.put(&updated), nil
}

// Remove deletes a user.
func (u *Users) Remove(_ context.Context, args *resource.Args) (any, error) {
	id := resource.Required[int](args, 0)
	if !u.store.remove(id) {
		return nil, resource.Errorf(http.StatusNotFound, "user %d not found", id)
	}
	return nil, nil
}
