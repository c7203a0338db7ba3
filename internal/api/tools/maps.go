package tools

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

// MapLink builds a map-search URL for a place name or a "lat,long" string.
func MapLink(locationName string) (string, error) {
	if locationName == "" {
		return "", fmt.Errorf("location name or coordinates are required to generate a map link: %w", types.ErrInvalidArgument)
	}
	return types.MapsSearchURL + encodeURIComponent(locationName), nil
}

// url.QueryEscape leaves only A-Z a-z 0-9 - _ . ~ unescaped and turns spaces into '+'.
// encodeURIComponent additionally keeps ! * ' ( ) and uses %20 for spaces.
var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}
