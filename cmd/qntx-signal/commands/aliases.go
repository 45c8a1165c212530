package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/qntx-signal/sym"
)

// AddGlyphAliases lets each glyph stand in for its command, so
// "qntx-signal ⊔ stats" is "qntx-signal db stats".
func AddGlyphAliases(root *cobra.Command) {
	for glyph, name := range sym.SymbolToCommand {
		for _, c := range root.Commands() {
			if c.Name() == name {
				c.Aliases = append(c.Aliases, glyph)
			}
		}
	}
}
