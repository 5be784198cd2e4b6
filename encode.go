package resource

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encoder encodes response values to a wire format.
type Encoder interface {
	ContentType() string
	Encode(w io.Writer, v any) error
}

// jsonCodec encodes JSON.
type jsonCodec struct{}

func (jsonCodec) ContentType() string { return MediaTypeJSON }

func (jsonCodec) Encode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// xmlCodec encodes XML.
type xmlCodec struct{}

func (xmlCodec) ContentType() string { return MediaTypeXML }

func (xmlCodec) Encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(v)
}

// yamlCodec encodes YAML.
type yamlCodec struct{}

func (yamlCodec) ContentType() string { return MediaTypeYAML }

func (yamlCodec) Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// codecRegistry holds all registered encoders.
// Index 0 is always JSON (the fallback).
type codecRegistry struct {
	encoders []Encoder
}

// newCodecRegistry builds a registry with JSON, XML, and YAML first, then
// any user-registered encoders.
func newCodecRegistry(userEncoders []Encoder) *codecRegistry {
	cr := &codecRegistry{
		encoders: make([]Encoder, 0, 3+len(userEncoders)),
	}
	cr.encoders = append(cr.encoders, jsonCodec{}, xmlCodec{}, yamlCodec{})
	cr.encoders = append(cr.encoders, userEncoders...)
	return cr
}

// encoderFor returns the encoder for a Content-Type value. Structured
// suffixes ("+json", "+xml", "+yaml") fall back to their base format, and
// anything unknown falls back to JSON. Later registrations win.
func (cr *codecRegistry) encoderFor(contentType string) Encoder {
	mt := mediaType(contentType)
	for i := len(cr.encoders) - 1; i >= 0; i-- {
		if mediaType(cr.encoders[i].ContentType()) == mt {
			return cr.encoders[i]
		}
	}

	switch {
	case strings.HasSuffix(mt, "+xml"):
		return xmlCodec{}
	case strings.HasSuffix(mt, "+yaml"):
		return yamlCodec{}
	default:
		return cr.encoders[0]
	}
}
