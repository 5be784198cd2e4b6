package resource

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate checks parameter rules. It is safe for concurrent use.
var validate = validator.New()

// checkRules reports whether p's rules are usable, by running them once
// against the zero value of p's type. Unknown rule tags make the validator
// panic, which is turned into a route error here rather than at request time.
func checkRules(p ParamSpec) (err error) {
	if p.Rules == "" {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: parameter %q: rules %q: %v", ErrInvalidRoute, p.Name, p.Rules, rec)
		}
	}()
	//nolint:errcheck // only a panic matters here
	validate.Var(reflect.Zero(p.Type).Interface(), p.Rules)
	return nil
}

// bind coerces path values into the route's required parameters and the
// query or form values into its optional parameters. Undeclared keys are
// ignored and absent optional parameters stay absent.
func bind(rt *Route, req *Request, body any) (*Args, error) {
	args := &Args{
		Required: make([]any, len(rt.required)),
		Optional: make(map[string]any),
		Body:     body,
		Request:  req,
	}

	for i, p := range rt.required {
		raw := req.PathValues[i]
		values := []string{raw}
		if isList(p.Type) {
			values = strings.Split(raw, ",")
		}
		v, err := convert(p, values)
		if err != nil {
			return nil, err
		}
		args.Required[i] = v
	}

	source := optionalSource(req, body)
	for _, p := range rt.optional {
		values, ok := source[p.Name]
		if !ok || len(values) == 0 {
			continue
		}
		v, err := convert(p, values)
		if err != nil {
			return nil, err
		}
		args.Optional[p.Name] = v
	}

	return args, nil
}

func convert(p ParamSpec, values []string) (any, error) {
	v, err := coerce(p, values)
	if err != nil {
		return nil, err
	}
	if p.Rules == "" {
		return v, nil
	}
	if err := validate.Var(v, p.Rules); err != nil {
		return nil, invalidParameter(p.Name, err)
	}
	return v, nil
}

// optionalSource picks where optional parameters come from: the decoded
// body for form-urlencoded requests, the query string otherwise.
func optionalSource(req *Request, body any) url.Values {
	if mediaType(req.ContentType()) != MediaTypeForm {
		return req.Query
	}
	if form, ok := body.(url.Values); ok {
		return form
	}
	return url.Values{}
}

func invalidParameter(name string, err error) *HTTPError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		return stageError(http.StatusBadRequest, ErrInvalidParameter, err,
			"parameter %q fails rule %q", name, rule)
	}
	return stageError(http.StatusBadRequest, ErrInvalidParameter, fmt.Errorf("validate: %w", err),
		"parameter %q is invalid", name)
}
