package story

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// The authoring backend exposes scenarios over GraphQL with Mongo-style ids
// and nested asset references. The types below mirror the scenarioById query.

type gqlRef struct {
	MongoID string `json:"mongoId"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	FullURL string `json:"fullUrl,omitempty"`
}

type gqlChoice struct {
	MongoID   string          `json:"mongoId"`
	Text      string          `json:"text"`
	Condition json.RawMessage `json:"condition"`
	ToSceneID *gqlRef         `json:"toSceneId"`
}

type gqlScene struct {
	MongoID      string      `json:"mongoId"`
	Title        string      `json:"title"`
	Text         string      `json:"text"`
	Order        int         `json:"order"`
	IsStartScene bool        `json:"isStartScene"`
	ImageID      *gqlRef     `json:"imageId"`
	SoundID      *gqlRef     `json:"soundId"`
	MusicID      *gqlRef     `json:"musicId"`
	Choices      []gqlChoice `json:"choices"`
}

type gqlScenario struct {
	MongoID     string     `json:"mongoId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
	ScenesList  []gqlScene `json:"scenesList"`
}

// MapScenarioResponse converts a scenarioById GraphQL response into a Scenario.
//
// The payload may be the full response envelope ({"data": {"scenarioById":
// ...}}), the data object, or the scenario object itself. Asset references
// resolve to their full URL when present, otherwise to their URL. A choice
// without a target scene keeps an empty TargetSceneID. Structured conditions
// are kept as their compact JSON text. Positions are left unset for the
// layout engine to fill in.
func MapScenarioResponse(data []byte) (*Scenario, error) {
	raw, err := unwrapScenario(data)
	if err != nil {
		return nil, err
	}

	var in gqlScenario
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	sc := &Scenario{
		ID:          in.MongoID,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   parseTime(in.CreatedAt),
		UpdatedAt:   parseTime(in.UpdatedAt),
		Scenes:      make([]Scene, len(in.ScenesList)),
	}
	for i, s := range in.ScenesList {
		sc.Scenes[i] = mapScene(s)
	}
	return sc, nil
}

func unwrapScenario(data []byte) (json.RawMessage, error) {
	raw := json.RawMessage(data)
	for _, key := range []string{"data", "scenarioById"} {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		inner, ok := env[key]
		if !ok {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
			return nil, fmt.Errorf("decode response: %s is null", key)
		}
		raw = inner
	}
	return raw, nil
}

func mapScene(s gqlScene) Scene {
	out := Scene{
		ID:           s.MongoID,
		Title:        s.Title,
		Content:      s.Text,
		IsStartScene: s.IsStartScene,
		Choices:      make([]Choice, len(s.Choices)),
	}
	if s.ImageID != nil {
		out.Image = assetURL(s.ImageID)
		out.ImageAssetID = s.ImageID.MongoID
	}
	if s.SoundID != nil {
		out.Audio = assetURL(s.SoundID)
		out.AudioAssetID = s.SoundID.MongoID
	}
	for i, c := range s.Choices {
		out.Choices[i] = mapChoice(c)
	}
	return out
}

func mapChoice(c gqlChoice) Choice {
	out := Choice{ID: c.MongoID, Text: c.Text, Condition: conditionText(c.Condition)}
	if c.ToSceneID != nil {
		out.TargetSceneID = c.ToSceneID.MongoID
	}
	return out
}

func assetURL(r *gqlRef) string {
	if r.FullURL != "" {
		return r.FullURL
	}
	return r.URL
}

func conditionText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
