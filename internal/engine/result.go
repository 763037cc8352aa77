package engine

import (
	"strings"

	"github.com/aidanlsb/shopctl/internal/pagination"
	"github.com/aidanlsb/shopctl/internal/value"
)

// Result is the part of a response the verb asked for.
type Result struct {
	// Data is the node list for list verbs, the payload field for
	// mutations that declare one, and the root field otherwise.
	Data value.Value

	// PageInfo is set for list verbs.
	PageInfo *pagination.PageInfo

	UserErrors []UserError
}

// Unwrap extracts the verb's result from the "data" member of a response.
// A non-empty userErrors list yields both the result and a
// *UserErrorsError.
func (p *Plan) Unwrap(data value.Value) (*Result, error) {
	res := &Result{Data: value.Null()}
	obj, ok := data.AsObject()
	if !ok {
		return res, nil
	}
	field, ok := obj.Get(p.Verb.Operation)
	if !ok || field.IsNull() {
		return res, nil
	}
	fieldObj, _ := field.AsObject()

	switch {
	case p.Verb.List:
		if fieldObj == nil {
			return res, nil
		}
		if nodes, ok := fieldObj.Get("nodes"); ok {
			res.Data = nodes
		}
		if pi, ok := fieldObj.Get("pageInfo"); ok {
			if info, ok := pagination.FromValue(pi); ok {
				res.PageInfo = &info
			}
		}
		return res, nil

	case p.Verb.Payload != "" && fieldObj != nil:
		res.Data, _ = fieldObj.Get(p.Verb.Payload)

	case p.Verb.UserErrors && fieldObj != nil:
		rest := fieldObj.Clone()
		rest.Delete("userErrors")
		res.Data = value.FromObject(rest)

	default:
		res.Data = field
	}

	if fieldObj != nil {
		res.UserErrors = userErrors(fieldObj)
	}
	if len(res.UserErrors) > 0 {
		return res, &UserErrorsError{Operation: p.Verb.Operation, Errors: res.UserErrors}
	}
	return res, nil
}

func userErrors(payload *value.Object) []UserError {
	list, ok := payload.Get("userErrors")
	if !ok {
		return nil
	}
	items, _ := list.AsList()
	out := make([]UserError, 0, len(items))
	for _, item := range items {
		obj, ok := item.AsObject()
		if !ok {
			continue
		}
		var ue UserError
		if msg, ok := obj.Get("message"); ok {
			ue.Message, _ = msg.AsString()
		}
		if field, ok := obj.Get("field"); ok {
			parts, _ := field.AsList()
			for _, part := range parts {
				if s, ok := part.AsString(); ok {
					ue.Field = append(ue.Field, s)
				}
			}
		}
		out = append(out, ue)
	}
	return out
}

// IDs collects the id of every node in v, which is a node or a list of
// nodes. Nodes without an id are skipped.
func IDs(v value.Value) []string {
	var out []string
	collect := func(n value.Value) {
		obj, ok := n.AsObject()
		if !ok {
			return
		}
		if id, ok := obj.Get("id"); ok {
			if s, ok := id.AsString(); ok {
				out = append(out, s)
			}
		}
	}
	if items, ok := v.AsList(); ok {
		for _, item := range items {
			collect(item)
		}
		return out
	}
	collect(v)
	return out
}

// IDs collects the ids of a result. Fixed selections are read at their id
// paths; everything else as IDs does.
func (p *Plan) IDs(res *Result) []string {
	if res == nil {
		return nil
	}
	if len(p.idPaths) == 0 {
		return IDs(res.Data)
	}
	var out []string
	for _, path := range p.idPaths {
		collectPath(res.Data, strings.Split(path, "."), &out)
	}
	return out
}

func collectPath(v value.Value, segs []string, out *[]string) {
	if items, ok := v.AsList(); ok {
		for _, item := range items {
			collectPath(item, segs, out)
		}
		return
	}
	if len(segs) == 0 {
		if s, ok := v.AsString(); ok && s != "" {
			*out = append(*out, s)
		}
		return
	}
	obj, ok := v.AsObject()
	if !ok {
		return
	}
	if child, ok := obj.Get(segs[0]); ok {
		collectPath(child, segs[1:], out)
	}
}
