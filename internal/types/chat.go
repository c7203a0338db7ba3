package types

import (
	"encoding/json"
	"math"
)

const (
	// FallbackAnswer replaces any generated answer that fails validation.
	FallbackAnswer = "I'm sorry, I encountered an issue processing your request. Could you please try again or rephrase your question?"

	// AttributionAnswer is returned verbatim for "who made you" style questions.
	AttributionAnswer = "Fabena Franklin Fernandez @shadow"

	// MapsSearchURL is the fixed map-search template; the encoded location is appended.
	MapsSearchURL = "https://www.google.com/maps/search/?api=1&query="
)

// UserLocation is the approximate browser location, if the user shared it.
type UserLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both coordinates are finite and in range.
func (l UserLocation) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) ||
		math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// GenerationRequest is the input of the answer generator.
type GenerationRequest struct {
	Query        string
	UserLocation *UserLocation
}

// HasLocation reports whether coordinates were supplied.
func (r GenerationRequest) HasLocation() bool {
	return r.UserLocation != nil
}

// GenerationResult is the validated output of the answer generator.
// An empty MapURL means no map.
type GenerationResult struct {
	Answer string `json:"answer"`
	MapURL string `json:"mapUrl,omitempty"`
}

type LinkRecommendationRequest struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// LinkSet holds absolute URLs in model output order.
type LinkSet []string

// MarshalJSON encodes a nil set as an empty array.
func (s LinkSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// ChatResponse is the composite value returned to the UI.
type ChatResponse struct {
	Answer string  `json:"answer"`
	Links  LinkSet `json:"links"`
	MapURL string  `json:"mapUrl,omitempty"`
}

// ChatRequest is the HTTP body of POST /api/v1/chat.
type ChatRequest struct {
	Query        string        `json:"query"`
	UserLocation *UserLocation `json:"userLocation,omitempty"`
}
