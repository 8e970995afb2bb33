package upstream

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// FlexibleString handles fields the upstream sends either as a string or as a number.
// The suggest endpoint returns "status": "0" on some deployments and "status": 0 on others.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler for FlexibleString
func (f *FlexibleString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("FlexibleString: cannot unmarshal %s", string(b))
}

// MarshalJSON implements json.Marshaler for FlexibleString
func (f FlexibleString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// String returns the trimmed value
func (f FlexibleString) String() string {
	return strings.TrimSpace(string(f))
}

// SuggestResponse is the JSON payload of /public/suggest.do
type SuggestResponse struct {
	Status      FlexibleString `json:"status"`
	Suggestions []Suggestion   `json:"suggestions"`
}

// OK reports whether the upstream flagged the response as successful ("0")
func (r SuggestResponse) OK() bool {
	return r.Status.String() == "0"
}

// Suggestion is one place proposed by the upstream autocompleter
type Suggestion struct {
	Name            string `json:"n"`
	PlaceDataString string `json:"placeDataString"`
	IsFake          bool   `json:"isFake,omitempty"`
}

var stopPlaceRe = regexp.MustCompile(`^s\|(\d+)$`)

// Real reports whether the suggestion points at an actual place
func (s Suggestion) Real() bool {
	return !s.IsFake && s.PlaceDataString != ""
}

// StopID returns the numeric stop id encoded as "s|<id>" in the place data string
func (s Suggestion) StopID() (string, bool) {
	m := stopPlaceRe.FindStringSubmatch(strings.TrimSpace(s.PlaceDataString))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// RealSuggestions drops placeholder entries
func RealSuggestions(in []Suggestion) []Suggestion {
	var out []Suggestion
	for _, s := range in {
		if s.Real() {
			out = append(out, s)
		}
	}
	return out
}

// StopSuggestions keeps only real suggestions that identify a single stop
func StopSuggestions(in []Suggestion) []Suggestion {
	var out []Suggestion
	for _, s := range RealSuggestions(in) {
		if _, ok := s.StopID(); ok {
			out = append(out, s)
		}
	}
	return out
}

// PickSuggestion returns the suggestion whose name equals the query (case-insensitive),
// or the only suggestion when there is exactly one
func PickSuggestion(query string, suggestions []Suggestion) (Suggestion, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Suggestion{}, false
	}
	for _, s := range suggestions {
		if n := strings.ToLower(strings.TrimSpace(s.Name)); n != "" && n == q {
			return s, true
		}
	}
	if len(suggestions) == 1 {
		return suggestions[0], true
	}
	return Suggestion{}, false
}

// Request kinds accepted by the suggest endpoint
const (
	KindSource      = "SOURCE"
	KindDestination = "DESTINATION"
)

var suggestTypes = map[string]bool{
	"AUTO": true, "ALL": true, "CITIES": true, "STOPS": true,
	"STREETS": true, "ADDRESSES": true, "GEOGRAPHICAL": true, "LINE": true,
}

func normalizeSuggestType(t string) string {
	if suggestTypes[t] {
		return t
	}
	return "ALL"
}

// Trip types and arrival modes of the search form
const (
	TripOneWay = "one-way"
	TripTwoWay = "two-way"

	ModeDeparture = "DEPARTURE"
	ModeArrival   = "ARRIVAL"
)

// SearchParams are the inputs of a connection search
type SearchParams struct {
	FromV     string // placeDataString of the origin
	ToV       string // placeDataString of the destination
	FromQuery string
	ToQuery   string
	View      string // tseVw, "regularP" when empty

	Date     string // YYYY-MM-DD or dd.mm.yyyy
	Arrival  string // DEPARTURE or ARRIVAL
	TripType string // one-way or two-way
	Time     string // any clock format understood by dateutil.NormalizeTime
	OmitTime bool

	PreferDirects bool
	OnlyOnline    bool
	MinChange     string
	CarrierTypes  []int

	ReturnDate     string
	ReturnArrival  string
	ReturnTime     string
	OmitReturnTime bool
}
