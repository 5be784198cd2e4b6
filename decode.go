package resource

import (
	"context"
	"errors"
	"io"
	"net/url"

	"github.com/go-chi/render"
	"gopkg.in/yaml.v3"
)

// BodyDecoder turns a raw request body of one media type into a decoded
// value. Decoders never see empty bodies.
type BodyDecoder interface {
	ContentType() string
	Decode(ctx context.Context, r io.Reader) (any, error)
}

// jsonDecoder decodes JSON into the generic any representation.
type jsonDecoder struct{}

func (jsonDecoder) ContentType() string { return MediaTypeJSON }

func (jsonDecoder) Decode(_ context.Context, r io.Reader) (any, error) {
	var v any
	err := render.DecodeJSON(r, &v)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return v, err
}

// formDecoder decodes form-urlencoded bodies into url.Values.
type formDecoder struct{}

func (formDecoder) ContentType() string { return MediaTypeForm }

func (formDecoder) Decode(_ context.Context, r io.Reader) (any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return url.ParseQuery(string(b))
}

// yamlDecoder decodes YAML into the generic any representation.
type yamlDecoder struct{}

func (yamlDecoder) ContentType() string { return MediaTypeYAML }

func (yamlDecoder) Decode(_ context.Context, r io.Reader) (any, error) {
	var v any
	err := yaml.NewDecoder(r).Decode(&v)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return v, err
}

// decoderRegistry maps media types to body decoders. User decoders replace
// built-ins for the same media type.
type decoderRegistry map[string]BodyDecoder

func newDecoderRegistry(user []BodyDecoder) decoderRegistry {
	reg := decoderRegistry{}
	for _, d := range []BodyDecoder{jsonDecoder{}, formDecoder{}, yamlDecoder{}} {
		reg[d.ContentType()] = d
	}
	for _, d := range user {
		reg[mediaType(d.ContentType())] = d
	}
	return reg
}

func (reg decoderRegistry) decoderFor(contentType string) (BodyDecoder, bool) {
	d, ok := reg[mediaType(contentType)]
	return d, ok
}
