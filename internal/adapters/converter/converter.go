package converter

import (
	"fmt"
	"time"

	"eventcertificates/internal/domain"
)

// New returns the converter named by provider: "inkscape" or "native".
func New(provider, inkscapeBin string, timeout time.Duration) (domain.DocumentConverter, error) {
	switch provider {
	case "", "inkscape":
		return NewInkscapeConverter(inkscapeBin, timeout), nil
	case "native":
		return NewNativeConverter(), nil
	default:
		return nil, fmt.Errorf("unknown converter %q", provider)
	}
}
