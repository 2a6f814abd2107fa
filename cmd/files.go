package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/store"
)

// placementFile is the YAML shape of `lingua seed placement` input. A file
// holds one or more tests.
type placementFile struct {
	Tests []placementTestDoc `yaml:"tests"`
}

type placementTestDoc struct {
	ID       string                      `yaml:"id"`
	Language string                      `yaml:"language"`
	Title    string                      `yaml:"title"`
	Items    []store.PlacementItemRecord `yaml:"items"`
}

func (d placementTestDoc) record() *store.PlacementTest {
	return &store.PlacementTest{ID: d.ID, Language: d.Language, Title: d.Title, Items: d.Items}
}

type answersFile struct {
	Answers []placement.Answer `yaml:"answers"`
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func readPlacementTests(path string) ([]placementTestDoc, error) {
	var f placementFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	if len(f.Tests) == 0 {
		return nil, fmt.Errorf("%s: no tests found", path)
	}
	return f.Tests, nil
}

func itemsOf(d placementTestDoc) []placement.Item {
	out := make([]placement.Item, 0, len(d.Items))
	for _, it := range d.Items {
		out = append(out, placement.Item{
			ID:       it.ID,
			Type:     grading.TaskType(it.Type),
			Prompt:   it.Prompt,
			Accepted: it.Accepted,
			Choices:  it.Choices,
			Weight:   it.Weight,
			Order:    it.Order,
		})
	}
	return out
}
