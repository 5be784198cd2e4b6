// Package resource dispatches HTTP requests to methods of resource types.
// A resource type embeds Base and declares its handler methods; the package
// picks the method from the verb and the path variables present, converts
// string parameters into the declared Go types, decodes the body according
// to its media type, and serializes the result.
//
// Handler methods are declared with method expressions:
//
//	type Things struct {
//	    resource.Base
//	    store *Store
//	}
//
//	func (t *Things) Routes() []resource.Route {
//	    return []resource.Route{
//	        resource.Get((*Things).List, resource.WithParams(resource.Param[int]("limit"))),
//	        resource.Get((*Things).Show, resource.WithPath(resource.Param[int]("id"))),
//	        resource.Post((*Things).Create, resource.WithParams(resource.Param[string]("name"))),
//	    }
//	}
//
//	// Show returns one thing.
//	func (t *Things) Show(ctx context.Context, args *resource.Args) (any, error) {
//	    return t.store.Get(ctx, resource.Required[int](args, 0))
//	}
//
// A request is matched on the verb plus the ordered names of its path
// variables, so "GET /things/{id}" runs Show and "GET /things" runs List.
//
// Resource types are served by a Service, which mounts them on a chi router
// and creates one handler value per request:
//
//	s := resource.New(resource.WithTitle("Things"), resource.WithVersion("1.0.0"))
//	s.Use(resource.RequestID(), resource.Logger(logger), resource.Recovery(logger))
//	resource.Mount(s, "/things", newThings)
//	resource.Mount(s, "/things/{id}", newThings)
//	s.ServeSpec("/openapi.json")
//
// Dispatch failures become RFC 9457 problem responses; errors without an
// HTTP status reach the Service's ErrorHandler.
package resource
