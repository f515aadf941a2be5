package agent

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)

func testTools() *ToolExecutor {
	return NewToolExecutor(func() time.Time { return fixedNow })
}

func TestLookupTool(t *testing.T) {
	k, ok := LookupTool("calcular")
	require.True(t, ok)
	assert.Equal(t, ToolCalcular, k)

	k, ok = LookupTool("obter_data")
	require.True(t, ok)
	assert.Equal(t, ToolObterData, k)

	_, ok = LookupTool("previsao_tempo")
	assert.False(t, ok)

	assert.Equal(t, "calcular", ToolCalcular.String())
	assert.Equal(t, "obter_data", ToolObterData.String())
	assert.Equal(t, "ToolKind(99)", ToolKind(99).String())
}

func TestDefinitions(t *testing.T) {
	defs := testTools().Definitions()
	require.Len(t, defs, 2)

	calc := defs[0]
	assert.Equal(t, "calcular", calc.Name)
	assert.Equal(t, "Calcula expressões matemáticas para pintura", calc.Description)
	assert.Equal(t, "object", calc.Parameters["type"])
	assert.NotContains(t, calc.Parameters, "$schema")
	assert.Equal(t, []any{"expressao"}, calc.Parameters["required"])

	props := calc.Parameters["properties"].(map[string]any)
	expr := props["expressao"].(map[string]any)
	assert.Equal(t, "string", expr["type"])
	assert.Equal(t, "Expressão matemática (ex: 100*2.5, 150/12)", expr["description"])

	date := defs[1]
	assert.Equal(t, "obter_data", date.Name)
	assert.Equal(t, "Obtém data e hora para cronogramas", date.Description)
	assert.Equal(t, "object", date.Parameters["type"])
	assert.Empty(t, date.Parameters["properties"])
}

func TestDefinitionsReturnsCopy(t *testing.T) {
	tools := testTools()
	defs := tools.Definitions()
	defs[0].Name = "changed"
	assert.Equal(t, "calcular", tools.Definitions()[0].Name)
}

func TestExecute(t *testing.T) {
	tools := testTools()

	tests := []struct {
		name string
		tool string
		args string
		want string
	}{
		{"calcular", "calcular", `{"expressao":"100*2.5"}`, "Resultado: 100*2.5 = 250.0"},
		{"calcular missing arg", "calcular", `{}`, "Erro: Não foi possível calcular ''. Use apenas números e operadores básicos."},
		{"obter_data", "obter_data", `{}`, "Data e hora atual: 05/03/2024 às 14:07:09"},
		{"obter_data empty args", "obter_data", ``, "Data e hora atual: 05/03/2024 às 14:07:09"},
		{"unknown", "previsao_tempo", `{}`, "Ferramenta 'previsao_tempo' não reconhecida"},
		{"bad json", "calcular", `{"expressao":`, ""},
		{"wrong type", "calcular", `{"expressao": 12}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tools.Execute(tt.tool, tt.args)
			if tt.want == "" {
				assert.Contains(t, got, "Erro: argumentos inválidos para 'calcular'")
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrentDateFormat(t *testing.T) {
	out := NewToolExecutor(nil).Execute("obter_data", "{}")
	assert.Regexp(t, regexp.MustCompile(`^Data e hora atual: \d{2}/\d{2}/\d{4} às \d{2}:\d{2}:\d{2}$`), out)
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, DefaultSystemPrompt, SystemPrompt(""))
	assert.Equal(t, "custom", SystemPrompt("custom"))
	assert.Contains(t, DefaultSystemPrompt, "Você é o ZOR")
	assert.Contains(t, DefaultSystemPrompt, "GUARDRAILS")
}
