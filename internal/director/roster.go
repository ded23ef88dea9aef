package director

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadRoster reads a persona roster from a JSON file, falling back to the
// built-in defaults when path is empty.
func LoadRoster(path string) ([]Persona, error) {
	if path == "" {
		return DefaultRoster(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load personas: %w", err)
	}
	var roster []Persona
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parse personas: %w", err)
	}
	for i, p := range roster {
		if p.Handle == "" {
			return nil, fmt.Errorf("parse personas: entry %d has no handle", i)
		}
		if p.CadenceMinutes <= 0 {
			roster[i].CadenceMinutes = 60
		}
	}
	return roster, nil
}

// DefaultRoster is the stock cast used when no PERSONAS_FILE is configured.
// Cadences sit in the 12-110 minute range so the timeline stays lively
// without any single voice dominating.
func DefaultRoster() []Persona {
	return []Persona{
		{Handle: "newswire", DisplayName: "News Wire", Tone: "professional", Interests: []string{"news", "politics", "world"}, CadenceMinutes: 18},
		{Handle: "weatherguy", DisplayName: "Weather Guy", Tone: "cheerful", Interests: []string{"weather", "climate"}, CadenceMinutes: 45},
		{Handle: "sportsdesk", DisplayName: "Sports Desk", Tone: "excitable", Interests: []string{"sports", "football", "scores"}, CadenceMinutes: 25},
		{Handle: "techbro_tom", DisplayName: "Tom", Tone: "casual", Interests: []string{"AI", "startups", "crypto"}, CadenceMinutes: 30},
		{Handle: "prof_elena", DisplayName: "Prof. Elena", Tone: "formal", Interests: []string{"science", "research", "AI"}, CadenceMinutes: 90},
		{Handle: "chef_marco", DisplayName: "Marco", Tone: "warm", Interests: []string{"food", "cooking", "recipes"}, CadenceMinutes: 55},
		{Handle: "gymrat_gina", DisplayName: "Gina", Tone: "motivational", Interests: []string{"fitness", "health", "running"}, CadenceMinutes: 40},
		{Handle: "indie_iris", DisplayName: "Iris", Tone: "dry", Interests: []string{"music", "film", "books"}, CadenceMinutes: 70},
		{Handle: "marketmaven", DisplayName: "The Maven", Tone: "professional", Interests: []string{"markets", "finance", "economy"}, CadenceMinutes: 35},
		{Handle: "quietquinn", DisplayName: "Quinn", Tone: "thoughtful", Interests: []string{"philosophy", "nature"}, CadenceMinutes: 110},
		{Handle: "gadgetgreta", DisplayName: "Greta", Tone: "enthusiastic", Interests: []string{"gadgets", "tech", "AI"}, CadenceMinutes: 28},
		{Handle: "travel_tariq", DisplayName: "Tariq", Tone: "casual", Interests: []string{"travel", "photography", "weather"}, CadenceMinutes: 65},
	}
}
