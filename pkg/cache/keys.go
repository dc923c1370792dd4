package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Key families. Every key starts with one of them, after the optional
// scope prefix.
const (
	FamilyLayout   = "layout"
	FamilyArtifact = "artifact"
)

// keyVersion is bumped whenever the layout or render output changes for
// identical inputs, so stale entries are never served.
const keyVersion = "v1"

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// LayoutKey names the layout computed for a scenario document.
	LayoutKey(scenarioHash string, opts LayoutKeyOpts) string
	// ArtifactKey names a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout options that change the computed positions.
type LayoutKeyOpts struct {
	HorizontalSpacing float64 `json:"hs"`
	LevelSpacing      float64 `json:"ls"`
	MaxDepth          int     `json:"depth"`
	StrictStart       bool    `json:"strict,omitempty"`
}

// ArtifactKeyOpts are the render options that change the output bytes.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Scale      float64 `json:"scale,omitempty"`
	EdgeLabels bool    `json:"labels,omitempty"`
}

// DefaultKeyer builds keys of the form family:version:sha256(input, opts).
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) LayoutKey(scenarioHash string, opts LayoutKeyOpts) string {
	return familyKey(FamilyLayout, scenarioHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return familyKey(FamilyArtifact, layoutHash, opts)
}

func familyKey(family, input string, opts any) string {
	data, err := json.Marshal([]any{input, opts})
	if err != nil {
		// JSON has no NaN or Inf. The Go syntax form still distinguishes
		// every input and option value.
		data = fmt.Appendf(nil, "%q %#v", input, opts)
	}
	return family + ":" + keyVersion + ":" + Hash(data)
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewScopedKeyer prefixes every key of inner with scope, so that several
// deployments can share one Redis instance. A nil inner uses the default
// keyer. A scope without a trailing colon gets one.
func NewScopedKeyer(inner Keyer, scope string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return scopedKeyer{inner: inner, prefix: normalizeScope(scope)}
}

type scopedKeyer struct {
	inner  Keyer
	prefix string
}

func (k scopedKeyer) LayoutKey(scenarioHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(scenarioHash, opts)
}

func (k scopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

// KeyPrefixes returns the key prefixes owned by the pipeline under scope.
// Clearing exactly these leaves unrelated keys of a shared Redis intact.
func KeyPrefixes(scope string) []string {
	p := normalizeScope(scope)
	return []string{p + FamilyLayout + ":", p + FamilyArtifact + ":"}
}

func normalizeScope(scope string) string {
	if scope == "" || strings.HasSuffix(scope, ":") {
		return scope
	}
	return scope + ":"
}
