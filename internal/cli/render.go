package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aidanlsb/shopctl/internal/engine"
	"github.com/aidanlsb/shopctl/internal/ui"
	"github.com/aidanlsb/shopctl/internal/value"
)

// printResult writes an unwrapped result in the plan's format.
func printResult(plan *engine.Plan, res *engine.Result) error {
	switch plan.Format {
	case engine.FormatIDs:
		for _, id := range plan.IDs(res) {
			fmt.Fprintln(stdout, id)
		}
		return nil

	case engine.FormatTable:
		if res.Data.IsNull() {
			fmt.Fprintln(stderr, ui.Hint("No "+plan.Resource.Name+" found"))
			return nil
		}
		fmt.Fprint(stdout, renderTable(res.Data))
		if items, ok := res.Data.AsList(); ok {
			fmt.Fprintln(stderr, ui.Hint(ui.Count(len(items), "result", "results")))
		}
		return nil
	}

	data, err := res.Data.MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, prettyJSON(data))
	return nil
}

func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

// renderTable lays out a node or a list of nodes, one row per node and one
// column per leaf path. Columns appear in first-seen order.
func renderTable(v value.Value) string {
	items, ok := v.AsList()
	if !ok {
		items = []value.Value{v}
	}

	var columns []string
	seen := make(map[string]bool)
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		row := make(map[string]string)
		flatten("", item, func(path, cell string) {
			if !seen[path] {
				seen[path] = true
				columns = append(columns, path)
			}
			row[path] = cell
		})
		rows = append(rows, row)
	}

	t := ui.NewTable(columns...)
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = row[col]
		}
		t.AddRow(cells...)
	}
	return t.Render(getDisplay())
}

// flatten walks nested objects, emitting one cell per leaf. Lists of
// scalars are joined; lists of objects are summarised by their length.
func flatten(prefix string, v value.Value, emit func(path, cell string)) {
	if obj, ok := v.AsObject(); ok {
		if obj.Len() == 0 && prefix != "" {
			emit(prefix, "")
			return
		}
		for _, key := range obj.Keys() {
			child, _ := obj.Get(key)
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			flatten(path, child, emit)
		}
		return
	}
	if prefix == "" {
		prefix = "value"
	}
	emit(prefix, cellText(v))
}

func cellText(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return ""
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case value.KindNumber:
		lit, _ := v.NumberLiteral()
		return lit
	case value.KindList:
		items, _ := v.AsList()
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item.Kind() == value.KindObject || item.Kind() == value.KindList {
				return ui.Count(len(items), "item", "items")
			}
			parts = append(parts, cellText(item))
		}
		return strings.Join(parts, ", ")
	}
	return v.String()
}
