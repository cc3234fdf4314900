package pddl

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	declarationPattern = regexp.MustCompile(`^(\??\w+)?\s*-\s*(\w+)$`)
	planStepPattern    = regexp.MustCompile(`^\(\s*([\w-]+)((?:\s+[\w?-]+)*)\s*\)(?:\s*\[[\d.]+\])?$`)
	planIndexPattern   = regexp.MustCompile(`^(?:step\s+)?\d+(?:\.\d+)?\s*[:.)]\s*`)
)

// ParseObjectDeclaration splits "name - type" into its parts. A declaration
// with a type but no name fails with ErrUnnamedObject.
func ParseObjectDeclaration(decl string) (name, typeName string, err error) {
	m := declarationPattern.FindStringSubmatch(strings.TrimSpace(decl))
	if m == nil {
		return "", "", &ParseError{Input: decl, Reason: "not a valid object declaration"}
	}
	if m[1] == "" {
		return "", "", fmt.Errorf("%w of type %s", ErrUnnamedObject, m[2])
	}
	return m[1], m[2], nil
}

// ParseInstance parses "name - type" and resolves the type in types.
func ParseInstance(decl string, types TypeIndex) (Instance, error) {
	name, typeName, err := ParseObjectDeclaration(decl)
	if err != nil {
		return Instance{}, err
	}
	t, ok := types.Lookup(typeName)
	if !ok {
		return Instance{}, &ParseError{Input: decl, Reason: "unknown type " + typeName}
	}
	return t.Instance(name), nil
}

// Resolver finds an instance by name.
type Resolver func(name string) (Instance, bool)

// ParseFact parses "(pred a b)" or "(not (pred a b))", resolving argument names.
func ParseFact(text string, resolve Resolver) (Fact, error) {
	tokens := tokenize(text)
	f, rest, err := parseFactTokens(tokens, resolve)
	if err != nil {
		return Fact{}, wrapParse(text, err)
	}
	if len(rest) != 0 {
		return Fact{}, &ParseError{Input: text, Reason: "trailing tokens"}
	}
	return f, nil
}

func wrapParse(text string, err error) error {
	if _, ok := err.(*ParseError); ok {
		return err
	}
	return fmt.Errorf("cannot parse %q: %w", text, err)
}

func tokenize(s string) []string {
	s = strings.ReplaceAll(s, "(", " ( ")
	s = strings.ReplaceAll(s, ")", " ) ")
	return strings.Fields(s)
}

func parseFactTokens(tokens []string, resolve Resolver) (Fact, []string, error) {
	if len(tokens) < 3 || tokens[0] != "(" {
		return Fact{}, nil, &ParseError{Input: strings.Join(tokens, " "), Reason: "expected '(' predicate"}
	}
	word := strings.ToLower(tokens[1])
	if word == OpNot {
		inner, rest, err := parseFactTokens(tokens[2:], resolve)
		if err != nil {
			return Fact{}, nil, err
		}
		if len(rest) == 0 || rest[0] != ")" {
			return Fact{}, nil, &ParseError{Input: strings.Join(tokens, " "), Reason: "unterminated negation"}
		}
		return inner.Negation(), rest[1:], nil
	}
	if word == "(" || word == ")" || IsOperator(word) {
		return Fact{}, nil, &ParseError{Input: strings.Join(tokens, " "), Reason: "not a ground atom"}
	}
	f := Fact{Predicate: word}
	i := 2
	for ; i < len(tokens) && tokens[i] != ")"; i++ {
		if tokens[i] == "(" {
			return Fact{}, nil, &ParseError{Input: strings.Join(tokens, " "), Reason: "nested expression in atom"}
		}
		inst, ok := resolve(tokens[i])
		if !ok {
			return Fact{}, nil, fmt.Errorf("%w: %s", ErrUnknownObject, tokens[i])
		}
		f.Args = append(f.Args, inst)
	}
	if i == len(tokens) {
		return Fact{}, nil, &ParseError{Input: strings.Join(tokens, " "), Reason: "missing ')'"}
	}
	return f, tokens[i+1:], nil
}

// ParsePlan reads one task per line, as printed by common planners:
//
//	(greet human_1)
//	1: (joke_with human_1) [1]
//
// Blank lines, ';' comments and markdown fences are skipped. Any other line
// fails with *ParseError. An input without steps is an empty plan.
func ParsePlan(text string) ([]Task, error) {
	var tasks []Task
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "```") {
			continue
		}
		line = planIndexPattern.ReplaceAllString(strings.ToLower(line), "")
		m := planStepPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, &ParseError{Input: raw, Reason: "not a plan step"}
		}
		task := Task{Action: m[1]}
		if params := strings.Fields(m[2]); len(params) > 0 {
			task.Parameters = params
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
