package resource

import (
	"encoding/json"
	"io"
	"net/http"

	"gopkg.in/yaml.v3"
)

// ServeSpec registers a GET handler at pattern that serves the OpenAPI
// document as JSON.
func (s *Service) ServeSpec(pattern string) {
	s.mux.Get(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", MediaTypeJSON)
		if err := s.WriteSpec(w); err != nil {
			s.logger.Error("write openapi spec", "err", err)
		}
	})
}

// ServeSpecYAML registers a GET handler at pattern that serves the OpenAPI
// document as YAML.
func (s *Service) ServeSpecYAML(pattern string) {
	s.mux.Get(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", MediaTypeYAML)
		if err := s.WriteSpecYAML(w); err != nil {
			s.logger.Error("write openapi spec", "err", err)
		}
	})
}

// WriteSpec writes the OpenAPI document as indented JSON to w.
func (s *Service) WriteSpec(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Spec())
}

// WriteSpecYAML writes the OpenAPI document as YAML to w. The document is
// passed through JSON first so that reflected schemas keep their JSON field
// names.
func (s *Service) WriteSpecYAML(w io.Writer) error {
	b, err := json.Marshal(s.Spec())
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
