package address

import (
	"context"
	"testing"

	"github.com/orthodeskhq/orthodesk-backend/pkg/maps"
)

func TestFromPlaceDetails(t *testing.T) {
	details := &maps.PlaceDetails{
		PlaceID:          "place_123",
		FormattedAddress: "4210 Archwire Ave, Tulsa, OK 74105, US",
		Location: maps.LatLng{
			Latitude:  36.0972,
			Longitude: -95.9714,
		},
		AddressComponents: []maps.AddressComponent{
			{LongName: "4210", Types: []string{"street_number"}},
			{LongName: "Archwire Ave", Types: []string{"route"}},
			{LongName: "Tulsa", Types: []string{"locality"}},
			{LongName: "Oklahoma", ShortName: "OK", Types: []string{"administrative_area_level_1"}},
			{LongName: "74105", Types: []string{"postal_code"}},
			{LongName: "United States", ShortName: "US", Types: []string{"country"}},
		},
	}

	result, err := fromPlaceDetails(details)
	if err != nil {
		t.Fatalf("fromPlaceDetails failed: %v", err)
	}
	if result.Line1 != "4210 Archwire Ave" {
		t.Fatalf("unexpected line1 %q", result.Line1)
	}
	if result.City != "Tulsa" {
		t.Fatalf("unexpected city %q", result.City)
	}
	if result.State != "OK" {
		t.Fatalf("unexpected state %q", result.State)
	}
	if result.PostalCode != "74105" {
		t.Fatalf("unexpected postal %q", result.PostalCode)
	}
	if result.Country != "US" {
		t.Fatalf("unexpected country %q", result.Country)
	}
	if result.Latitude != 36.0972 || result.Longitude != -95.9714 {
		t.Fatalf("unexpected location %+v", result)
	}
}

func TestFromPlaceDetailsFallsBackToFormattedAddress(t *testing.T) {
	details := &maps.PlaceDetails{
		FormattedAddress: "Archwire Plaza, Tulsa, OK",
		AddressComponents: []maps.AddressComponent{
			{LongName: "Tulsa", Types: []string{"locality"}},
		},
	}

	result, err := fromPlaceDetails(details)
	if err != nil {
		t.Fatalf("fromPlaceDetails failed: %v", err)
	}
	if result.Line1 != "Archwire Plaza" {
		t.Fatalf("unexpected line1 %q", result.Line1)
	}
}

func TestSuggestRequiresQuery(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.Suggest(context.Background(), SuggestRequest{Query: "main st"}); err == nil {
		t.Fatal("expected dependency error without maps client")
	}
}
