package voice

import "github.com/MrWong99/solace/internal/emotion"

// DefaultIdentities is the built-in voice catalog. IDs are stock ElevenLabs
// voice keys; deployments with their own voice library override them in the
// config file.
var DefaultIdentities = []Identity{
	{ID: "OYTbf65OHHFELVut7v2H", Name: "Hope", Gender: Female, Tags: []string{"warm", "supportive", "gentle"}, Default: true},
	{ID: "kcQkGnn0HAT2JRDQ4Ljp", Name: "Carla", Gender: Female, Tags: []string{"calm", "soothing", "steady"}},
	{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Bella", Gender: Female, Tags: []string{"soft", "reflective"}},
	{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Gender: Female, Tags: []string{"bright", "energetic", "upbeat"}},
	{ID: "ZQe5CZNOzWyzPSCn5a3c", Name: "James", Gender: Male, Tags: []string{"calm", "grounded", "peaceful"}},
	{ID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Gender: Male, Tags: []string{"clear", "confident", "professional"}},
}

// DefaultProfiles holds the built-in synthesis profile for every voice in
// [DefaultIdentities]. BaseVoiceID is filled from the catalog.
var DefaultProfiles = map[string]Profile{
	"Hope": {
		Base: Settings{Stability: 0.6, SimilarityBoost: 0.8, Style: 0.3, SpeakerBoost: true},
		Adjustments: map[emotion.Context]Adjustment{
			emotion.Crisis:     {Stability: 0.85, Style: 0.1},
			emotion.Calming:    {Stability: 0.8, Style: 0.15},
			emotion.Comforting: {Stability: 0.75, Style: 0.25},
			emotion.Energizing: {Stability: 0.45, Style: 0.6},
			emotion.Supportive: {Stability: 0.65, Style: 0.35},
		},
	},
	"Carla": {
		Base: Settings{Stability: 0.7, SimilarityBoost: 0.75, Style: 0.2, SpeakerBoost: true},
		Adjustments: map[emotion.Context]Adjustment{
			emotion.Crisis:     {Stability: 0.9, Style: 0.05},
			emotion.Calming:    {Stability: 0.85, Style: 0.1},
			emotion.Comforting: {Stability: 0.8, Style: 0.2},
			emotion.Energizing: {Stability: 0.5, Style: 0.5},
			emotion.Supportive: {Stability: 0.7, Style: 0.3},
		},
	},
	"Bella": {
		Base: Settings{Stability: 0.65, SimilarityBoost: 0.8, Style: 0.25, SpeakerBoost: false},
		Adjustments: map[emotion.Context]Adjustment{
			emotion.Crisis:     {Stability: 0.85, Style: 0.1},
			emotion.Calming:    {Stability: 0.8, Style: 0.15},
			emotion.Comforting: {Stability: 0.75, Style: 0.3},
			emotion.Energizing: {Stability: 0.5, Style: 0.55},
			emotion.Supportive: {Stability: 0.7, Style: 0.3},
		},
	},
	"Rachel": {
		Base: Settings{Stability: 0.45, SimilarityBoost: 0.75, Style: 0.5, SpeakerBoost: true},
		Adjustments: map[emotion.Context]Adjustment{
			emotion.Crisis:     {Stability: 0.8, Style: 0.15},
			emotion.Calming:    {Stability: 0.7, Style: 0.25},
			emotion.Comforting: {Stability: 0.65, Style: 0.3},
			emotion.Energizing: {Stability: 0.35, Style: 0.75},
			emotion.Supportive: {Stability: 0.55, Style: 0.45},
		},
	},
	"James": {
		Base: Settings{Stability: 0.7, SimilarityBoost: 0.8, Style: 0.2, SpeakerBoost: true},
		Adjustments: map[emotion.Context]Adjustment{
			emotion.Crisis:     {Stability: 0.9, Style: 0.05},
			emotion.Calming:    {Stability: 0.85, Style: 0.1},
			emotion.Comforting: {Stability: 0.8, Style: 0.2},
			emotion.Energizing: {Stability: 0.55, Style: 0.45},
			emotion.Supportive: {Stability: 0.75, Style: 0.25},
		},
	},
	"Adam": {
		Base: Settings{Stability: 0.6, SimilarityBoost: 0.85, Style: 0.15, SpeakerBoost: true},
		Adjustments: map[emotion.Context]Adjustment{
			emotion.Crisis:     {Stability: 0.85, Style: 0.05},
			emotion.Calming:    {Stability: 0.8, Style: 0.1},
			emotion.Comforting: {Stability: 0.75, Style: 0.15},
			emotion.Energizing: {Stability: 0.5, Style: 0.4},
			emotion.Supportive: {Stability: 0.65, Style: 0.2},
		},
	},
}
