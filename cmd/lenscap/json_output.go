package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON renders v for --json consumers: indented, with HTML escaping
// off so captions keep their literal <, >, and & characters.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
