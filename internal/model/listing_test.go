package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceValue(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  int
		ok    bool
	}{
		{"spaces as thousand separators", "800 000 €", 800000, true},
		{"narrow no-break space", "1 250 000 €", 1250000, true},
		{"dots as separators", "795.000 €", 795000, true},
		{"bare number", "640000", 640000, true},
		{"no digits", "prix sur demande", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Listing{Price: tt.price}
			got, ok := l.PriceValue()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAreaValue(t *testing.T) {
	tests := []struct {
		name string
		area string
		want int
		ok   bool
	}{
		{"with unit", "80 m²", 80, true},
		{"decimal takes leading integer", "62,5 m²", 62, true},
		{"no digits", "n/a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Listing{Area: tt.area}
			got, ok := l.AreaValue()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPricePerArea(t *testing.T) {
	l := Listing{Price: "800 000 €", Area: "80 m²"}
	ppa, ok := l.PricePerArea()
	assert.True(t, ok)
	assert.Equal(t, 10000, ppa)

	// Missing or zero area is not a divide, it is a miss.
	l = Listing{Price: "800 000 €", Area: ""}
	_, ok = l.PricePerArea()
	assert.False(t, ok)

	l = Listing{Price: "800 000 €", Area: "0 m²"}
	_, ok = l.PricePerArea()
	assert.False(t, ok)
}

func TestFloorValue(t *testing.T) {
	tests := []struct {
		name  string
		floor string
		want  int
		ok    bool
	}{
		{"rdc", "RDC", 0, true},
		{"rez-de-chaussee", "rez-de-chaussée", 0, true},
		{"ordinal 3eme", "3ème étage", 3, true},
		{"ordinal 1er", "1er étage", 1, true},
		{"ordinal 4e", "4e", 4, true},
		{"missing", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Listing{Floor: tt.floor}
			got, ok := l.FloorValue()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasElevator(t *testing.T) {
	with := Listing{Characteristics: "Ascenseur, cave"}
	without := Listing{Characteristics: "cave, parking"}
	assert.True(t, with.HasElevator())
	assert.False(t, without.HasElevator())
}

func TestFullText(t *testing.T) {
	l := Listing{Title: "Bel Appartement", Description: "Cuisine OUVERTE", Characteristics: "Parquet"}
	assert.Equal(t, "bel appartement cuisine ouverte parquet", l.FullText())
}
