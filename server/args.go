package server

import "strings"

// ParseArgs parses slash command text into params: key=value pairs become
// named params, the first bare word becomes "action" and later bare words are
// joined under "args". Double quotes group words.
func ParseArgs(text string) map[string]any {
	ret := map[string]any{}
	var positional []string
	for _, token := range tokenize(text) {
		if key, value, ok := strings.Cut(token, "="); ok && key != "" {
			ret[key] = value
			continue
		}
		positional = append(positional, token)
	}
	if len(positional) > 0 {
		ret["action"] = positional[0]
	}
	if len(positional) > 1 {
		ret["args"] = strings.Join(positional[1:], " ")
	}
	return ret
}

func tokenize(text string) []string {
	var ret []string
	var current strings.Builder
	quoted, started := false, false
	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
			if started {
				ret = append(ret, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		ret = append(ret, current.String())
	}
	return ret
}
