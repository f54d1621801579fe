// Package profile holds the immutable participant data a simulation run is
// seeded with. A Roster is validated once at load time and never mutated by
// the engine.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
)

type AgentProfile struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Idea        string   `json:"idea"`
	Skills      []string `json:"skills,omitempty"`
	Personality string   `json:"personality,omitempty"`
	Motivation  string   `json:"motivation,omitempty"`
	XPLevel     string   `json:"xp_level,omitempty"`
}

// ValidationError reports a profile missing a required field. It is fatal at
// load time, before any run state exists.
type ValidationError struct {
	Index int
	Name  string
	Field string
}

func (e *ValidationError) Error() string {
	who := e.Name
	if who == "" {
		who = fmt.Sprintf("profile %d", e.Index)
	}
	return fmt.Sprintf("profile validation: %s: missing required field %q", who, e.Field)
}

// Roster is an immutable, ordered set of validated profiles.
type Roster struct {
	profiles []AgentProfile
}

func NewRoster(profiles []AgentProfile) (*Roster, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("at least one agent profile is required")
	}
	for i, p := range profiles {
		if p.Name == "" {
			return nil, &ValidationError{Index: i, Field: "name"}
		}
		if p.Role == "" {
			return nil, &ValidationError{Index: i, Name: p.Name, Field: "role"}
		}
		if p.Idea == "" {
			return nil, &ValidationError{Index: i, Name: p.Name, Field: "idea"}
		}
	}
	out := make([]AgentProfile, len(profiles))
	copy(out, profiles)
	for i := range out {
		if out[i].Personality == "" {
			out[i].Personality = "Curious Collaborator"
		}
		if out[i].Motivation == "" {
			out[i].Motivation = "Build something meaningful."
		}
		if out[i].XPLevel == "" {
			out[i].XPLevel = "mid"
		}
	}
	return &Roster{profiles: out}, nil
}

func (r *Roster) Len() int {
	return len(r.profiles)
}

func (r *Roster) At(i int) AgentProfile {
	return r.profiles[i]
}

// All returns a copy of the roster; callers may not reach engine state
// through it.
func (r *Roster) All() []AgentProfile {
	out := make([]AgentProfile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// ByName returns the profile with the given name, or false when absent.
func (r *Roster) ByName(name string) (AgentProfile, bool) {
	for _, p := range r.profiles {
		if p.Name == name {
			return p, true
		}
	}
	return AgentProfile{}, false
}

// Load reads a JSON profile list from path. An empty path yields the
// built-in default roster.
func Load(path string) (*Roster, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var profiles []AgentProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	return NewRoster(profiles)
}
