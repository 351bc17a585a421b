package prompt

import (
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ExtractVariables returns the distinct variable names found in the
// template, in order of first appearance.
func ExtractVariables(template string) []string {
	matches := variablePattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool)
	var vars []string
	for _, m := range matches {
		if len(m) > 1 && !seen[m[1]] {
			vars = append(vars, m[1])
			seen[m[1]] = true
		}
	}
	return vars
}

// Compile replaces every {{name}} placeholder with its supplied value.
// Tokens with no matching key are left verbatim; validating that the
// caller supplied every variable is the orchestrator's job, not the
// compiler's.
func Compile(template string, vars map[string]string) string {
	compiled := template
	for key, value := range vars {
		compiled = strings.ReplaceAll(compiled, "{{"+key+"}}", value)
	}
	return compiled
}

// Missing returns the template variables for which no usable value was
// supplied. A value of only whitespace counts as missing.
func Missing(variables []string, vars map[string]string) []string {
	var missing []string
	for _, v := range variables {
		if strings.TrimSpace(vars[v]) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

// SelectModels resolves the target model list for a generation. An
// explicitly requested model always wins as a singleton; otherwise the
// template's configured models are used. An empty result means the
// caller must be refused, there is no implicit default model.
func SelectModels(requested string, configured []string) []string {
	if requested != "" {
		return []string{requested}
	}
	return configured
}
