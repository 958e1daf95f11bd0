package rules

import (
	"errors"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"callwire/internal/model"
)

// LoadFile reads a rule set from a YAML file. An empty path yields the
// embedded default set. Malformed regex patterns inside a loaded set are not
// an error here; they surface as compile-time skips.
func LoadFile(path string) (model.RuleSet, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return model.RuleSet{}, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return model.RuleSet{}, err
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return model.RuleSet{}, errors.New("rules file is empty")
	}
	var set model.RuleSet
	if err := yaml.Unmarshal(content, &set); err != nil {
		return model.RuleSet{}, err
	}
	if len(set.Rules) == 0 {
		return model.RuleSet{}, errors.New("rules file declares no rules")
	}
	if err := Validate(set); err != nil {
		return model.RuleSet{}, err
	}
	return set, nil
}

// Save writes a rule set as YAML, mainly so operators can dump the embedded
// defaults and edit from there.
func Save(path string, set model.RuleSet) error {
	if path == "" {
		return errors.New("rules path is empty")
	}
	data, err := yaml.Marshal(set)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
