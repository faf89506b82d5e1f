package enums

import (
	"fmt"
	"strings"
)

// Platform identifies a social network a post can target.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedin  Platform = "linkedin"
	PlatformYoutube   Platform = "youtube"
)

var validPlatforms = []Platform{
	PlatformFacebook,
	PlatformInstagram,
	PlatformLinkedin,
	PlatformYoutube,
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Platform.
func (p Platform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlatform converts raw input into a Platform.
func ParsePlatform(value string) (Platform, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPlatforms {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform %q", value)
}

// ParsePlatforms converts a list of raw values, rejecting duplicates.
func ParsePlatforms(values []string) ([]Platform, error) {
	seen := map[Platform]bool{}
	platforms := make([]Platform, 0, len(values))
	for _, value := range values {
		platform, err := ParsePlatform(value)
		if err != nil {
			return nil, err
		}
		if seen[platform] {
			continue
		}
		seen[platform] = true
		platforms = append(platforms, platform)
	}
	return platforms, nil
}
