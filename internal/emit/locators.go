package emit

import "github.com/roach88/flowgen/internal/ir"

// LocatorsModule renders the locators module: one default-exported object
// mapping each key to its expression, in table order.
func LocatorsModule(table *ir.LocatorTable) string {
	var w writer
	if table.Len() == 0 {
		w.line("const locators = {};")
	} else {
		w.open("const locators = {")
		for _, e := range table.Entries() {
			w.line("%s: %s,", e.Key, Quote(e.Expression))
		}
		w.close("};")
	}
	w.blank()
	w.line("export default locators;")
	return w.String()
}
