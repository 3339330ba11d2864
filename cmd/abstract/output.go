// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputTOML = "toml"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputTOML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (expected %s, %s or %s)", format, outputText, outputJSON, outputTOML)
	}
}

// emit writes v in the selected output format. text renders the human view.
func (a *App) emit(v any, text func(w io.Writer) error) error {
	switch a.flags.output {
	case outputJSON:
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputTOML:
		out, err := marshalTOML(v)
		if err != nil {
			return err
		}
		_, err = a.stdout.Write(out)
		return err
	default:
		return text(a.stdout)
	}
}

// marshalTOML encodes v through its JSON form so custom JSON encodings and
// field names carry over. TOML has no null, so nulls are dropped; a top-level
// value that is not an object is placed under "value".
func marshalTOML(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	root, ok := tomlValue(doc).(map[string]any)
	if !ok {
		root = map[string]any{"value": tomlValue(doc)}
	}
	return toml.Marshal(root)
}

func tomlValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if e != nil {
				out[k] = tomlValue(e)
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(x))
		for _, e := range x {
			if e != nil {
				out = append(out, tomlValue(e))
			}
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	default:
		return x
	}
}
