package render

import (
	"encoding/json"
	"io"

	"github.com/semdiff/semdiff/analyze"
)

// WriteJSON writes the analysis in its plain nested-mapping form.
func WriteJSON(w io.Writer, a *analyze.SemanticAnalysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
