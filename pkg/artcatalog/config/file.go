package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// readYAML reads a flat YAML mapping whose keys are the environment key
// names (case-insensitive). Lists are joined with commas and ${VAR} or
// ${VAR:-default} placeholders in values are expanded through lookup.
func readYAML(path string, lookup func(string) (string, bool)) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		var s string
		switch v := value.(type) {
		case nil:
			continue
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				items = append(items, fmt.Sprint(item))
			}
			s = strings.Join(items, ",")
		case map[string]any:
			return nil, fmt.Errorf("config file %s: key %q must be a scalar or a list", path, key)
		default:
			s = fmt.Sprint(v)
		}
		values[strings.ToUpper(key)] = expandString(s, lookup)
	}
	return values, nil
}

// expandString replaces ${VAR} and ${VAR:-default}. An unset or empty
// variable takes the default; without a default the placeholder is kept.
func expandString(s string, lookup func(string) (string, bool)) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := placeholderPattern.FindStringSubmatch(match)
		name, hasDefault := parts[1], strings.Contains(match, ":-")
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		if hasDefault {
			return parts[2]
		}
		return match
	})
}
