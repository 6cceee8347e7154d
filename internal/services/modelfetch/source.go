package modelfetch

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

type SourceType string

const (
	SourceTypeHuggingface SourceType = "huggingface"
	SourceTypeFile        SourceType = "file"
	SourceTypeDirect      SourceType = "direct"
)

const huggingfaceBaseURL = "https://huggingface.co"

type Source struct {
	Type     SourceType
	Location string
	Original string
}

// ParseSource accepts hf:<owner>/<repo>/<path>, file:<path> and http(s) URLs.
func ParseSource(source string) (*Source, error) {
	if source == "" {
		return nil, fmt.Errorf("empty source string. Source is required")
	}

	s := &Source{
		Original: source,
	}

	switch {
	case strings.HasPrefix(source, "hf:"):
		s.Type = SourceTypeHuggingface
		s.Location = strings.TrimPrefix(source, "hf:")
		if strings.Count(s.Location, "/") < 2 {
			return nil, fmt.Errorf("invalid huggingface source %q, expected hf:<owner>/<repo>/<file>", source)
		}
	case strings.HasPrefix(source, "file:"):
		s.Type = SourceTypeFile
		s.Location = strings.TrimPrefix(source, "file:")
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		s.Type = SourceTypeDirect
		s.Location = source
	default:
		return nil, fmt.Errorf("unsupported model source: %s", source)
	}

	return s, nil
}

// URL returns the address the artifact is downloaded from.
func (s *Source) URL(hfBase string) string {
	switch s.Type {
	case SourceTypeHuggingface:
		parts := strings.SplitN(s.Location, "/", 3)
		if hfBase == "" {
			hfBase = huggingfaceBaseURL
		}
		return fmt.Sprintf("%s/%s/%s/resolve/main/%s", strings.TrimSuffix(hfBase, "/"), parts[0], parts[1], parts[2])
	default:
		return s.Location
	}
}

// Filename is the name the artifact is stored under when none is given.
func (s *Source) Filename() string {
	switch s.Type {
	case SourceTypeDirect:
		if u, err := url.Parse(s.Location); err == nil {
			return path.Base(u.Path)
		}
	}
	return path.Base(s.Location)
}
