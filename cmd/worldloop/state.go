package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
)

// stateFile is the YAML form of a world state.
type stateFile struct {
	Objects []string `yaml:"objects"`
	Facts   []string `yaml:"facts"`
}

// loadState reads a state file. An empty path is the empty world.
func loadState(path string) (world.State, error) {
	if path == "" {
		return world.NewStateWith(domain.Constants()), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return world.State{}, fmt.Errorf("failed to read state: %w", err)
	}
	return parseState(data)
}

func parseState(data []byte) (world.State, error) {
	var f stateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return world.State{}, fmt.Errorf("failed to parse state: %w", err)
	}

	types := pddl.NewTypeIndex(domain.Types()...)
	objects := domain.Constants()
	byName := make(map[string]pddl.Instance, len(objects)+len(f.Objects))
	for _, c := range objects {
		byName[c.Name] = c
	}
	for _, decl := range f.Objects {
		inst, err := pddl.ParseInstance(decl, types)
		if err != nil {
			return world.State{}, err
		}
		if _, dup := byName[inst.Name]; dup {
			return world.State{}, fmt.Errorf("object %s declared twice", inst.Name)
		}
		byName[inst.Name] = inst
		objects = append(objects, inst)
	}

	resolve := func(name string) (pddl.Instance, bool) {
		inst, ok := byName[name]
		return inst, ok
	}
	facts := make([]pddl.Fact, 0, len(f.Facts))
	for _, text := range f.Facts {
		fact, err := pddl.ParseFact(text, resolve)
		if err != nil {
			return world.State{}, err
		}
		facts = append(facts, fact)
	}
	return world.NewStateWith(objects).Plus(facts...)
}
