package domain

import (
	"bytes"
	"encoding/json"

	m "geokit.dev/tools/geokit/internal/model"
)

// BuildScratchDocument prefixes driver with a declaration of variable
// holding the target's path. The path is emitted as a JSON string, which is
// also a valid JavaScript string literal.
func BuildScratchDocument(target m.LintTarget, variable string, driver []byte) m.ScratchDocument {
	quoted, _ := json.Marshal(string(target.FullPath)) // a string always marshals

	var buf bytes.Buffer

	buf.Grow(len(variable) + len(quoted) + len(driver) + 8)
	buf.WriteString("var ")
	buf.WriteString(variable)
	buf.WriteString(" = ")
	buf.Write(quoted)
	buf.WriteString(";\n")
	buf.Write(driver)

	return m.ScratchDocument{
		Target:  target,
		Content: buf.Bytes(),
	}
}
