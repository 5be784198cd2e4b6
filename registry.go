package resource

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// routeTable is the built, read-only route set of one handler type.
type routeTable struct {
	routes []*Route
	byKey  map[string]*Route
}

// lookup returns the route for verb and ordered path parameter names.
func (t *routeTable) lookup(verb string, names []string) (*Route, bool) {
	rt, ok := t.byKey[routeKey(verb, names)]
	return rt, ok
}

// registryEntry is what the registry stores per handler type: either a
// table or the configuration error that prevented building one.
type registryEntry struct {
	table *routeTable
	err   error
}

// registry maps handler types to their route tables. Each type is built at
// most once per process and never evicted.
type registry struct {
	entries sync.Map // reflect.Type -> *registryEntry
	group   singleflight.Group
	logger  *slog.Logger
}

func newRegistry(logger *slog.Logger) *registry {
	return &registry{logger: logger}
}

// log picks the caller's logger, then the registry's, then the default.
func (r *registry) log(logger *slog.Logger) *slog.Logger {
	switch {
	case logger != nil:
		return logger
	case r.logger != nil:
		return r.logger
	default:
		return slog.Default()
	}
}

// defaultRegistry is shared by every Dispatcher that does not bring its own.
var defaultRegistry = newRegistry(nil)

// table returns the route table for h's type, building it on first use.
// Concurrent first uses share one build. The singleflight key is the type's
// name, which distinct local types can share, so the loop re-checks that the
// entry for this exact type landed. The build is logged to logger when it
// is set.
func (r *registry) table(h Handler, logger *slog.Logger) (*routeTable, error) {
	typ := reflect.TypeOf(h)
	for {
		if e, ok := r.entries.Load(typ); ok {
			entry := e.(*registryEntry)
			return entry.table, entry.err
		}

		//nolint:errcheck // build errors are stored in the entry
		r.group.Do(typ.String(), func() (any, error) {
			if _, ok := r.entries.Load(typ); ok {
				return nil, nil
			}
			table, err := buildTable(h)
			if err == nil {
				r.log(logger).Info("handler registry built",
					slog.String("handler", typ.String()),
					slog.Int("routes", len(table.routes)),
				)
			}
			r.entries.LoadOrStore(typ, &registryEntry{table: table, err: err})
			return nil, nil
		})
	}
}

// resolve finds the route for verb and path parameter names on h's type.
func (r *registry) resolve(h Handler, verb string, names []string, logger *slog.Logger) (*Route, error) {
	table, err := r.table(h, logger)
	if err != nil {
		return nil, err
	}
	rt, ok := table.lookup(verb, names)
	if !ok {
		return nil, handlerNotFound(verb, names)
	}
	return rt, nil
}

// buildTable validates and indexes the routes declared by h.
func buildTable(h Handler) (*routeTable, error) {
	typ := reflect.TypeOf(h)
	declared := h.Routes()

	table := &routeTable{
		routes: make([]*Route, 0, len(declared)),
		byKey:  make(map[string]*Route, len(declared)),
	}

	var errs []error
	for i := range declared {
		rt := &declared[i]
		if err := validateRoute(rt); err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", typ, rt.name, err))
			continue
		}

		key := rt.key()
		if prev, ok := table.byKey[key]; ok {
			errs = append(errs, fmt.Errorf("%w: %s: %s and %s both answer %q",
				ErrRouteConflict, typ, prev.name, rt.name, key))
			continue
		}

		table.byKey[key] = rt
		table.routes = append(table.routes, rt)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

func validateRoute(rt *Route) error {
	if rt.invoke == nil {
		return fmt.Errorf("%w: no handler method", ErrInvalidRoute)
	}

	seen := make(map[string]bool, len(rt.required)+len(rt.optional))
	check := func(p ParamSpec) error {
		switch {
		case p.Name == "":
			return fmt.Errorf("%w: empty parameter name", ErrInvalidRoute)
		case seen[p.Name]:
			return fmt.Errorf("%w: duplicate parameter %q", ErrInvalidRoute, p.Name)
		case p.Type == nil || !supports(p.Type):
			return fmt.Errorf("%w: parameter %q has type %v", ErrUnsupportedParameterType, p.Name, p.Type)
		}
		if err := checkRules(p); err != nil {
			return err
		}
		seen[p.Name] = true
		return nil
	}

	for _, p := range rt.required {
		// Path names are joined with '-' in registry keys.
		if strings.Contains(p.Name, "-") {
			return fmt.Errorf("%w: path parameter name %q contains '-'", ErrInvalidRoute, p.Name)
		}
		if err := check(p); err != nil {
			return err
		}
	}
	for _, p := range rt.optional {
		if err := check(p); err != nil {
			return err
		}
	}
	return nil
}
