package ai

import (
	"errors"
	"fmt"
)

// ErrUnknownModel rejects model identifiers outside the catalog.
var ErrUnknownModel = errors.New("unknown model")

// Chat model identifiers clients may request. The set is closed on purpose:
// the hosted endpoint only serves these, and an arbitrary string must be
// rejected before any side effect.
const (
	ModelGemini20Flash = "gemini-2.0-flash"
	ModelGemini15Flash = "gemini-1.5-flash"
	ModelGemini15Pro   = "gemini-1.5-pro"
)

const DefaultModel = ModelGemini20Flash

var knownModels = map[string]struct{}{
	ModelGemini20Flash: {},
	ModelGemini15Flash: {},
	ModelGemini15Pro:   {},
}

// ResolveModel maps a client-supplied model name to a catalog entry.
// Empty input resolves to the default model.
func ResolveModel(name string) (string, error) {
	if name == "" {
		return DefaultModel, nil
	}
	if _, ok := knownModels[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return name, nil
}

// Models lists the catalog, default first.
func Models() []string {
	return []string{ModelGemini20Flash, ModelGemini15Flash, ModelGemini15Pro}
}
