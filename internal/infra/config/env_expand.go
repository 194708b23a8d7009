package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// expandEnv resolves ${VAR} references across a YAML document before
// viper decodes it. Working on the yaml.v3 node tree keeps quoting
// intact: an expansion inside a quoted scalar stays a string, while a
// bare scalar is re-tagged as whatever its expanded text parses as.
// The second return value names variables that were referenced but
// unset.
func expandEnv(raw []byte) (string, []string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return "", nil, fmt.Errorf("parse config: %w", err)
	}

	unset := map[string]struct{}{}
	expandTree(&doc, unset)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return "", nil, fmt.Errorf("encode expanded config: %w", err)
	}

	var names []string
	for name := range unset {
		names = append(names, name)
	}
	sort.Strings(names)
	return string(out), names, nil
}

func expandTree(node *yaml.Node, unset map[string]struct{}) {
	switch node.Kind {
	case yaml.MappingNode:
		// Only values expand; keys stay literal.
		for i := 1; i < len(node.Content); i += 2 {
			expandTree(node.Content[i], unset)
		}
		return
	case yaml.ScalarNode:
	default:
		for _, child := range node.Content {
			expandTree(child, unset)
		}
		if node.Alias != nil {
			expandTree(node.Alias, unset)
		}
		return
	}

	if (node.Tag != "" && node.Tag != "!!str") || !strings.ContainsRune(node.Value, '$') {
		return
	}

	expanded := os.Expand(node.Value, func(name string) string {
		val, ok := os.LookupEnv(name)
		if !ok {
			unset[name] = struct{}{}
		}
		return val
	})
	if expanded == node.Value {
		return
	}

	if node.Style != 0 {
		node.Tag = "!!str"
		node.Value = expanded
		return
	}
	node.Tag, node.Value = retagScalar(expanded)
}

// retagScalar decides what type a bare scalar became after expansion,
// so `port: ${PORT}` decodes as a number rather than the string "8080".
func retagScalar(text string) (string, string) {
	if strings.TrimSpace(text) == "" {
		return "!!str", text
	}

	var parsed any
	if yaml.Unmarshal([]byte(text), &parsed) != nil {
		return "!!str", text
	}

	switch v := parsed.(type) {
	case nil:
		return "!!null", "null"
	case bool:
		return "!!bool", strconv.FormatBool(v)
	case int:
		return "!!int", strconv.Itoa(v)
	case int64:
		return "!!int", strconv.FormatInt(v, 10)
	case uint64:
		return "!!int", strconv.FormatUint(v, 10)
	case float64:
		return "!!float", strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "!!str", text
}
