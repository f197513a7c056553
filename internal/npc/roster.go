package npc

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// RosterFile is the top-level structure of a roster YAML file.
//
// Example:
//
//	npcs:
//	  - id: stitch-up-girl
//	    name: Stitch Up Girl
//	    category: traveler
//	    objective: build_trust
//	    topics: [wounds, dice]
//	    home: frost-reach
//	    relationships:
//	      - other: mr-bones
//	        stats: {trust: 30, familiarity: 40}
type RosterFile struct {
	NPCs []Definition `yaml:"npcs"`
}

// LoadRosterFile reads a roster YAML file and builds a registry from it.
func LoadRosterFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("npc: open roster file %q: %w", path, err)
	}
	defer f.Close()

	reg, err := LoadRosterFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("npc: parse roster file %q: %w", path, err)
	}
	return reg, nil
}

// LoadRosterFromReader parses roster YAML from an [io.Reader] and builds a
// registry. The reader is consumed entirely; the caller is responsible for
// closing it.
func LoadRosterFromReader(r io.Reader) (*Registry, error) {
	var rf RosterFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&rf); err != nil {
		return nil, fmt.Errorf("npc: decode roster yaml: %w", err)
	}
	return NewRegistry(rf.NPCs...)
}
