// Package model defines the listing, signal, and scoring types shared across
// the pipeline.
package model

import (
	"regexp"
	"strings"
	"time"
)

// Photo is one listing photo reference, ordered as scraped.
type Photo struct {
	URL string `json:"url"`
}

// Listing is one scraped apartment listing. Raw fields keep the scraped
// string form (prices like "800 000 €", areas like "80 m²"); parsing happens
// in the scorers so a bad field degrades one axis instead of dropping the
// listing.
type Listing struct {
	ID              string   `json:"id"`
	URL             string   `json:"url,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Characteristics string   `json:"characteristics"`
	Price           string   `json:"price"`
	Area            string   `json:"area"`
	Floor           string   `json:"floor"`
	Rooms           string   `json:"rooms,omitempty"`
	Neighborhood    string   `json:"neighborhood"`
	Stations        []string `json:"stations,omitempty"`
	Photos          []Photo  `json:"photos,omitempty"`

	ScrapedAt   time.Time    `json:"scraped_at"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// FullText returns the searchable text of a listing (title, description,
// characteristics), lowercased.
func (l *Listing) FullText() string {
	return strings.ToLower(l.Title + " " + l.Description + " " + l.Characteristics)
}

// PhotoURLs returns the photo URLs in scrape order.
func (l *Listing) PhotoURLs() []string {
	urls := make([]string, 0, len(l.Photos))
	for _, p := range l.Photos {
		urls = append(urls, p.URL)
	}
	return urls
}

var numberRe = regexp.MustCompile(`\d+`)

// firstNumber extracts the first integer from a raw scraped field, ignoring
// thousand separators ("800 000 €" → 800000). Returns 0, false when the
// field holds no digits.
func firstNumber(raw string) (int, bool) {
	cleaned := strings.NewReplacer(" ", "", " ", "", ".", "").Replace(raw)
	m := numberRe.FindString(cleaned)
	if m == "" {
		return 0, false
	}
	n := 0
	for _, r := range m {
		n = n*10 + int(r-'0')
	}
	return n, true
}

// PriceValue parses the scraped price in euros.
func (l *Listing) PriceValue() (int, bool) {
	return firstNumber(l.Price)
}

// AreaValue parses the scraped surface area in m². Thousand separators are
// not expected here, so only the leading integer is taken ("80 m²" → 80).
func (l *Listing) AreaValue() (int, bool) {
	m := numberRe.FindString(l.Area)
	if m == "" {
		return 0, false
	}
	n := 0
	for _, r := range m {
		n = n*10 + int(r-'0')
	}
	return n, true
}

// PricePerArea computes the integer price per m² (integer division), or
// false when either side is missing or the area is zero.
func (l *Listing) PricePerArea() (int, bool) {
	price, ok := l.PriceValue()
	if !ok {
		return 0, false
	}
	area, ok := l.AreaValue()
	if !ok || area == 0 {
		return 0, false
	}
	return price / area, true
}

var floorRe = regexp.MustCompile(`(?i)(\d+)\s*(?:er?|e|ème?)`)

// FloorValue parses the floor number from the scraped floor field. Ground
// floor ("RDC", "rez-de-chaussée") parses as 0. Returns false when the field
// names no floor.
func (l *Listing) FloorValue() (int, bool) {
	lower := strings.ToLower(l.Floor)
	if strings.Contains(lower, "rdc") || strings.Contains(lower, "rez") {
		return 0, true
	}
	m := floorRe.FindStringSubmatch(l.Floor)
	if m == nil {
		return 0, false
	}
	n := 0
	for _, r := range m[1] {
		n = n*10 + int(r-'0')
	}
	return n, true
}

// HasElevator reports whether the characteristics mention an elevator.
func (l *Listing) HasElevator() bool {
	return strings.Contains(strings.ToLower(l.Characteristics), "ascenseur")
}
