package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/homescore/homescore-cli/pkg/jinka"
)

func TestListingFromApartment(t *testing.T) {
	apt := jinka.Apartment{
		ID:           "apt-1",
		URL:          "https://example.com/apt-1",
		Title:        "3 pièces Charonne",
		Description:  "Cuisine ouverte, lumineux",
		Features:     "Ascenseur, 4ème étage",
		Price:        "760 000 €",
		Area:         "78 m²",
		Floor:        "4ème",
		Neighborhood: "Charonne",
		Stations:     []string{"Alexandre Dumas", "Avron"},
		Images:       []string{"https://img/1.jpg", "https://img/2.jpg"},
	}

	l := listingFromApartment(apt)
	assert.Equal(t, "apt-1", l.ID)
	assert.Equal(t, "Cuisine ouverte, lumineux", l.Description)
	assert.Equal(t, "Ascenseur, 4ème étage", l.Characteristics)
	assert.Len(t, l.Photos, 2)
	assert.Equal(t, "https://img/1.jpg", l.Photos[0].URL)
	assert.False(t, l.ScrapedAt.IsZero())
	assert.True(t, l.HasElevator())
}
