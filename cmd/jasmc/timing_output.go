package main

import (
	"encoding/json"
	"fmt"
	"io"

	"jasmc/internal/observ"
)

func printTimings(out io.Writer, timer *observ.Timer, format string) error {
	if out == nil || timer == nil {
		return nil
	}
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(timer.Report())
	}
	_, err := fmt.Fprint(out, timer.Summary())
	return err
}
