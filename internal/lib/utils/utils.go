// Package utils contains small helper functions used across the project.
package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// SplitCSV splits a comma separated list, trimming spaces and dropping empty
// items. "name, price,," gives ["name", "price"].
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// PrintJSON writes v as indented JSON to w.
func PrintJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
