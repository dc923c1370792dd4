package story

import (
	"testing"
	"time"
)

const scenarioResponse = `{
  "data": {
    "scenarioById": {
      "mongoId": "65f0",
      "title": "Lighthouse",
      "description": "A stormy night",
      "createdAt": "2024-03-01T10:00:00.000Z",
      "updatedAt": "2024-03-02T11:30:00",
      "scenesList": [
        {
          "mongoId": "s1",
          "title": "Shore",
          "text": "Waves crash.",
          "isStartScene": true,
          "imageId": {"mongoId": "img1", "url": "/a.png", "fullUrl": "https://cdn/a.png"},
          "soundId": {"mongoId": "snd1", "url": "/wave.mp3"},
          "choices": [
            {"mongoId": "c1", "text": "Climb", "toSceneId": {"mongoId": "s2"}, "condition": {"hasKey": true}},
            {"mongoId": "c2", "text": "Wait", "toSceneId": null, "condition": "night"}
          ]
        },
        {"mongoId": "s2", "title": "Lamp", "choices": []}
      ]
    }
  }
}`

func TestMapScenarioResponse(t *testing.T) {
	sc, err := MapScenarioResponse([]byte(scenarioResponse))
	if err != nil {
		t.Fatalf("MapScenarioResponse: %v", err)
	}

	if sc.ID != "65f0" || sc.Title != "Lighthouse" || sc.Description != "A stormy night" {
		t.Errorf("metadata = %q %q %q", sc.ID, sc.Title, sc.Description)
	}
	if want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC); !sc.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", sc.CreatedAt, want)
	}
	if sc.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not parsed")
	}
	if len(sc.Scenes) != 2 {
		t.Fatalf("len(Scenes) = %d, want 2", len(sc.Scenes))
	}

	shore := sc.Scenes[0]
	if !shore.IsStartScene || shore.Content != "Waves crash." {
		t.Errorf("shore = %+v", shore)
	}
	if shore.Image != "https://cdn/a.png" || shore.ImageAssetID != "img1" {
		t.Errorf("image = %q (%q)", shore.Image, shore.ImageAssetID)
	}
	if shore.Audio != "/wave.mp3" {
		t.Errorf("audio = %q, want url fallback", shore.Audio)
	}
	if shore.Position != nil {
		t.Errorf("position = %v, want unset", shore.Position)
	}

	tests := []struct {
		idx       int
		target    string
		condition string
	}{
		{0, "s2", `{"hasKey":true}`},
		{1, "", "night"},
	}
	for _, tt := range tests {
		c := shore.Choices[tt.idx]
		if c.TargetSceneID != tt.target || c.Condition != tt.condition {
			t.Errorf("choice %d = %+v, want target %q condition %q", tt.idx, c, tt.target, tt.condition)
		}
	}
}

func TestMapScenarioResponseEnvelopes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr bool
	}{
		{"Bare", `{"mongoId":"x","scenesList":[]}`, "x", false},
		{"DataOnly", `{"scenarioById":{"mongoId":"y"}}`, "y", false},
		{"NullScenario", `{"data":{"scenarioById":null}}`, "", true},
		{"NotJSON", `nope`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := MapScenarioResponse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && sc.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", sc.ID, tt.wantID)
			}
		})
	}
}
