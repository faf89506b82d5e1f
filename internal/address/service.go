package address

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
	"github.com/orthodeskhq/orthodesk-backend/pkg/maps"
)

// Service provides address guidance for the practice profile form.
type Service interface {
	Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error)
	Resolve(ctx context.Context, placeID string) (*Resolved, error)
}

// SuggestRequest holds autocomplete inputs.
type SuggestRequest struct {
	Query    string
	Country  string
	Language string
}

// Suggestion is a single autocomplete candidate.
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Resolved is a canonical address for a place ID.
type Resolved struct {
	PlaceID          string  `json:"place_id"`
	FormattedAddress string  `json:"formatted_address"`
	Line1            string  `json:"line1"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	PostalCode       string  `json:"postal_code"`
	Country          string  `json:"country"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

type service struct {
	maps *maps.Client
}

// NewService wraps the Places client. A nil client is allowed; calls then fail
// with a dependency error so the rest of the API keeps working without a key.
func NewService(client *maps.Client) Service {
	return &service{maps: client}
}

func (s *service) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	if s == nil || s.maps == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "maps client unavailable")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}

	payload := maps.AutocompleteRequest{Input: req.Query}
	if country := strings.TrimSpace(req.Country); country != "" {
		payload.IncludedRegionCodes = []string{strings.ToUpper(country)}
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		payload.LanguageCode = lang
	}

	resp, err := s.maps.Autocomplete(ctx, payload)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(resp))
	for _, item := range resp {
		suggestions = append(suggestions, Suggestion{
			PlaceID:     item.PlaceID,
			Description: item.Description,
		})
	}
	return suggestions, nil
}

func (s *service) Resolve(ctx context.Context, placeID string) (*Resolved, error) {
	if s == nil || s.maps == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "maps client unavailable")
	}
	if strings.TrimSpace(placeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "place_id is required")
	}

	details, err := s.maps.ResolvePlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	return fromPlaceDetails(details)
}

func fromPlaceDetails(details *maps.PlaceDetails) (*Resolved, error) {
	if details == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "place details missing")
	}

	find := func(kind string) string {
		for _, comp := range details.AddressComponents {
			for _, typ := range comp.Types {
				if typ == kind && comp.LongName != "" {
					return comp.LongName
				}
			}
		}
		return ""
	}
	findShort := func(kind string) string {
		for _, comp := range details.AddressComponents {
			for _, typ := range comp.Types {
				if typ == kind && comp.ShortName != "" {
					return comp.ShortName
				}
			}
		}
		return ""
	}

	line1 := find("route")
	if number := find("street_number"); number != "" {
		if line1 != "" {
			line1 = fmt.Sprintf("%s %s", number, line1)
		} else {
			line1 = number
		}
	}
	if line1 == "" && strings.TrimSpace(details.FormattedAddress) != "" {
		line1 = strings.TrimSpace(strings.Split(details.FormattedAddress, ",")[0])
	}

	city := find("locality")
	if city == "" {
		city = find("postal_town")
	}

	return &Resolved{
		PlaceID:          details.PlaceID,
		FormattedAddress: details.FormattedAddress,
		Line1:            line1,
		City:             city,
		State:            findShort("administrative_area_level_1"),
		PostalCode:       find("postal_code"),
		Country:          findShort("country"),
		Latitude:         details.Location.Latitude,
		Longitude:        details.Location.Longitude,
	}, nil
}
