// Package story defines the branching-narrative data model consumed by the
// layout and consistency packages.
//
// A [Scenario] owns an ordered list of [Scene] values. Each scene carries an
// ordered list of [Choice] values pointing at other scenes by id. The model is
// deliberately forgiving: a choice may point at a scene that does not exist,
// several scenes may be flagged as the start scene, and the choice graph may
// contain cycles. Consumers degrade gracefully on all of these shapes.
//
// # Serialization
//
// Scenarios are read and written as JSON:
//
//	{
//	  "id": "s1",
//	  "title": "The Lighthouse",
//	  "scenes": [
//	    {"id": "a", "title": "Shore", "isStartScene": true,
//	     "choices": [{"id": "c1", "text": "Climb", "targetSceneId": "b"}]},
//	    {"id": "b", "title": "Lamp room"}
//	  ]
//	}
//
// [ReadScenario] also accepts a bare JSON array of scenes. Responses from the
// authoring backend's GraphQL API are converted with [MapScenarioResponse].
package story
