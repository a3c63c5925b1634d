// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     tts
// Description: Named voice presets loaded from YAML
// License:     MIT
// ============================================================================

package tts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a named voice preset. A tool call naming a profile gets
// its voice and rate expanded before the engine sees the request.
type Profile struct {
	Voice string `yaml:"voice"`
	Rate  int    `yaml:"rate"`
}

// Profiles maps preset names to their settings.
type Profiles map[string]Profile

// LoadProfiles reads a YAML profile file. An empty path yields an empty
// (but usable) profile set.
func LoadProfiles(path string) (Profiles, error) {
	if path == "" {
		return Profiles{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading voice profiles: %w", err)
	}

	var profiles Profiles
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parsing voice profiles: %w", err)
	}
	if profiles == nil {
		profiles = Profiles{}
	}
	return profiles, nil
}

// Apply expands a profile name into the request. A voice that matches
// no profile passes through unchanged.
func (p Profiles) Apply(req Request) Request {
	profile, ok := p[req.Voice]
	if !ok {
		return req
	}
	req.Voice = profile.Voice
	if profile.Rate > 0 && req.Rate == 0 {
		req.Rate = profile.Rate
	}
	return req
}
