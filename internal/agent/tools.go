package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/soyeahso/zor/internal/llm"
)

// ToolKind enumerates the tools the agent may call.
type ToolKind int

const (
	ToolCalcular ToolKind = iota + 1
	ToolObterData
)

func (k ToolKind) String() string {
	for _, s := range toolTable {
		if s.kind == k {
			return s.name
		}
	}
	return fmt.Sprintf("ToolKind(%d)", int(k))
}

// LookupTool resolves a tool name from a completion response.
func LookupTool(name string) (ToolKind, bool) {
	for _, s := range toolTable {
		if s.name == name {
			return s.kind, true
		}
	}
	return 0, false
}

// CalcularArgs are the arguments of the calcular tool.
type CalcularArgs struct {
	Expressao string `json:"expressao"`
}

// ObterDataArgs are the arguments of the obter_data tool (none).
type ObterDataArgs struct{}

type toolSpec struct {
	kind        ToolKind
	name        string
	description string
	args        any
	params      map[string]string // property name → description
	run         func(e *ToolExecutor, raw json.RawMessage) (string, error)
}

var toolTable = []toolSpec{
	{
		kind:        ToolCalcular,
		name:        "calcular",
		description: "Calcula expressões matemáticas para pintura",
		args:        &CalcularArgs{},
		params:      map[string]string{"expressao": "Expressão matemática (ex: 100*2.5, 150/12)"},
		run: func(e *ToolExecutor, raw json.RawMessage) (string, error) {
			var args CalcularArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", err
			}
			return Calculate(args.Expressao), nil
		},
	},
	{
		kind:        ToolObterData,
		name:        "obter_data",
		description: "Obtém data e hora para cronogramas",
		args:        &ObterDataArgs{},
		run: func(e *ToolExecutor, raw json.RawMessage) (string, error) {
			return CurrentDate(e.now()), nil
		},
	},
}

// ToolExecutor runs tool calls and publishes their definitions.
type ToolExecutor struct {
	now  func() time.Time
	defs []llm.ToolDefinition
}

// NewToolExecutor creates an executor. A nil clock means time.Now.
func NewToolExecutor(now func() time.Time) *ToolExecutor {
	if now == nil {
		now = time.Now
	}
	defs := make([]llm.ToolDefinition, 0, len(toolTable))
	for _, s := range toolTable {
		defs = append(defs, llm.ToolDefinition{
			Name:        s.name,
			Description: s.description,
			Parameters:  schemaFor(s.args, s.params),
		})
	}
	return &ToolExecutor{now: now, defs: defs}
}

// Definitions returns the tool definitions sent with a completion request.
func (e *ToolExecutor) Definitions() []llm.ToolDefinition {
	out := make([]llm.ToolDefinition, len(e.defs))
	copy(out, e.defs)
	return out
}

// Execute runs the named tool. Failures are reported in the returned text.
func (e *ToolExecutor) Execute(name, arguments string) string {
	kind, ok := LookupTool(name)
	if !ok {
		return fmt.Sprintf("Ferramenta '%s' não reconhecida", name)
	}

	raw := json.RawMessage(strings.TrimSpace(arguments))
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	for _, s := range toolTable {
		if s.kind != kind {
			continue
		}
		out, err := s.run(e, raw)
		if err != nil {
			return fmt.Sprintf("Erro: argumentos inválidos para '%s': %v", name, err)
		}
		return out
	}
	return fmt.Sprintf("Ferramenta '%s' não reconhecida", name)
}

// disallowedExpr matches anything outside digits, operators, parentheses,
// dots and whitespace.
var disallowedExpr = regexp.MustCompile(`[^0-9+\-*/().\s]`)

// Calculate evaluates expr after stripping disallowed characters.
func Calculate(expr string) string {
	result, err := evaluate(disallowedExpr.ReplaceAllString(expr, ""))
	if err != nil {
		return fmt.Sprintf("Erro: Não foi possível calcular '%s'. Use apenas números e operadores básicos.", expr)
	}
	return fmt.Sprintf("Resultado: %s = %s", expr, result)
}

// CurrentDate formats t for the obter_data tool.
func CurrentDate(t time.Time) string {
	return "Data e hora atual: " + t.Format("02/01/2006 às 15:04:05")
}

// schemaFor reflects a JSON schema object for an argument struct.
func schemaFor(v any, params map[string]string) map[string]any {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	s := r.Reflect(v)
	if s.Properties != nil {
		for name, desc := range params {
			if p, ok := s.Properties.Get(name); ok {
				p.Description = desc
			}
		}
	}

	out := map[string]any{"type": "object", "properties": map[string]any{}}
	data, err := json.Marshal(s)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out
	}
	delete(out, "$schema")
	delete(out, "$id")
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]any{}
	}
	return out
}
