package prompt

import (
	"fmt"
	"strings"
)

// Assembler turns retrieved context chunks into the assistant system prompt.
// It holds no mutable state and is safe for concurrent use.
type Assembler struct {
	tmpl Template
}

func NewAssembler(t Template) *Assembler {
	return &Assembler{tmpl: t}
}

// Build returns the system prompt for chunks, in the order given. An empty
// slice falls back to the template's default context.
func (a *Assembler) Build(chunks []string) string {
	context := a.tmpl.DefaultContext
	if len(chunks) > 0 {
		context = strings.Join(chunks, a.tmpl.Separator)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s\n\n", a.tmpl.Persona, a.tmpl.Intro)
	b.WriteString("Guidelines:\n")
	for i, g := range a.tmpl.Guidelines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g)
	}
	b.WriteString("\nContext:\n")
	b.WriteString(context)
	b.WriteString("\n")
	return b.String()
}
