// Package check detects structural defects in a narrative graph.
//
// The central question is [HasCycle]: can a reader starting from the start
// scene loop forever? Save workflows call it after merging an edit into the
// full scene list and reject the edit when it returns true. [FindCycle]
// returns the offending path for error messages and [BackEdges] lists every
// cycle-closing choice so renderers can highlight them.
//
// [Inspect] widens the view to the non-fatal findings (several start scenes,
// dangling choices, unreachable scenes, duplicate ids) that authoring tools
// surface as warnings.
//
// None of these functions fail on malformed input: dangling references are
// skipped and an empty scene list is acyclic.
package check
