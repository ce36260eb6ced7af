package editor

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/Rana718/dataorganizer/internal/coerce"
	"github.com/Rana718/dataorganizer/internal/prompt"
	"github.com/Rana718/dataorganizer/internal/types"
)

// Terminal is the Interactor used by the edit command.
type Terminal struct {
	p *prompt.Prompter
}

func NewTerminal(p *prompt.Prompter) *Terminal {
	return &Terminal{p: p}
}

func (t *Terminal) ChooseTable(ids []string) (string, error) {
	return t.p.Choice("Please enter a table", ids)
}

func (t *Terminal) Confirm(question string, def bool) (bool, error) {
	return t.p.Confirm(question, def)
}

func (t *Terminal) PromptValue(col types.ColumnSpec) (string, error) {
	label := fmt.Sprintf("%s (%s)", col.Name, col.CType)
	if col.IsNullable {
		label += " [nullable]"
	}
	if col.Default != nil {
		label += fmt.Sprintf(" [%s]", *col.Default)
	}
	return t.p.Text(label)
}

func (t *Terminal) InvalidInput(col types.ColumnSpec, err *coerce.InvalidInputError) {
	color.Red("Invalid input for column %s with type %s", col.Name, col.CType)
	if err.Hint != "" {
		color.Red(err.Hint)
	}
}

func (t *Terminal) Info(msg string) {
	color.Green("✅ %s", msg)
}

func (t *Terminal) Error(msg string) {
	color.Red("❌ %s", msg)
}
