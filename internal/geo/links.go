package geo

import (
	"fmt"
	"net/url"
	"strings"
)

// WikipediaSearchURL builds a Wikipedia search link for a place, scoped to
// the destination city when one is given ("Paris, France" -> "Paris").
func WikipediaSearchURL(name, destination string) string {
	query := name
	if destination != "" {
		city := strings.TrimSpace(strings.SplitN(destination, ",", 2)[0])
		if city != "" {
			query = name + " " + city
		}
	}
	return "https://en.wikipedia.org/wiki/Special:Search?search=" + url.QueryEscape(query)
}

// PlaceReferenceURL returns a Google Maps link when coordinates are known,
// otherwise a site-scoped web search for the place.
func PlaceReferenceURL(name, destination string, loc *Location) string {
	if loc != nil {
		return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%g,%g", loc.Lat, loc.Lon)
	}
	query := name
	if destination != "" {
		city := strings.TrimSpace(strings.SplitN(destination, ",", 2)[0])
		if city != "" {
			query = name + " " + city
		}
	}
	return "https://www.google.com/search?q=" + url.QueryEscape("site:wikipedia.org "+query)
}
