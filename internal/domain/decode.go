package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// MaxDepth bounds component nesting. Deeper items are dropped.
const MaxDepth = 16

// DecodeDocument parses a stored schema document ({"components": [...]})
// into component nodes. Only a document that is not a JSON object is an
// error; every other defect drops or empties the offending part and is
// reported as a Problem.
func DecodeDocument(raw []byte) ([]ComponentNode, []Problem, error) {
	doc, err := parseObject(raw)
	if err != nil {
		return nil, nil, err
	}

	d := &decoder{}
	return d.components(doc), d.problems, nil
}

// DecodePageSchema parses a full page schema including slug, language and tenant_id.
func DecodePageSchema(raw []byte) (PageSchema, []Problem, error) {
	doc, err := parseObject(raw)
	if err != nil {
		return PageSchema{}, nil, err
	}

	d := &decoder{}
	schema := PageSchema{
		Slug:     d.optionalString(doc, "slug", "slug"),
		Language: d.optionalString(doc, "language", "language"),
	}

	if t := doc.Get("tenant_id"); t.Exists() && t.Type != gjson.Null {
		id, parseErr := uuid.Parse(t.String())
		if parseErr != nil {
			d.report("tenant_id", "not a valid uuid, treated as master page")
		} else {
			schema.TenantID = &id
		}
	}

	schema.Components = d.components(doc)
	return schema, d.problems, nil
}

func parseObject(raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformedSchema)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: document is not an object", ErrMalformedSchema)
	}
	return doc, nil
}

type decoder struct {
	problems []Problem
}

func (d *decoder) report(path, reason string) {
	d.problems = append(d.problems, Problem{Path: path, Reason: reason})
}

func (d *decoder) components(doc gjson.Result) []ComponentNode {
	list := doc.Get("components")
	if !list.Exists() || list.Type == gjson.Null {
		return []ComponentNode{}
	}
	if !list.IsArray() {
		d.report("components", "not an array, rendered as empty page")
		return []ComponentNode{}
	}
	return d.nodes("components", list, 1)
}

func (d *decoder) nodes(path string, list gjson.Result, depth int) []ComponentNode {
	elems := list.Array()
	nodes := make([]ComponentNode, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))

	for i, elem := range elems {
		p := fmt.Sprintf("%s[%d]", path, i)
		node, ok := d.node(p, elem, depth)
		if !ok {
			continue
		}
		if _, dup := seen[node.Key]; dup {
			d.report(p, fmt.Sprintf("duplicate key %q, node dropped", node.Key))
			continue
		}
		seen[node.Key] = struct{}{}
		nodes = append(nodes, node)
	}
	return nodes
}

func (d *decoder) node(path string, elem gjson.Result, depth int) (ComponentNode, bool) {
	if !elem.IsObject() {
		d.report(path, "not an object, node dropped")
		return ComponentNode{}, false
	}

	key := d.requiredString(path, elem, "key")
	typ := d.requiredString(path, elem, "type")
	if key == "" || typ == "" {
		return ComponentNode{}, false
	}

	node := ComponentNode{
		Key:     key,
		Type:    typ,
		Content: d.optionalString(elem, "content", path+".content"),
		Props:   d.props(path+".props", elem.Get("props")),
	}

	items := elem.Get("items")
	switch {
	case !items.Exists() || items.Type == gjson.Null:
	case !items.IsArray():
		d.report(path+".items", "not an array, rendered as empty")
	case depth >= MaxDepth:
		d.report(path+".items", fmt.Sprintf("nesting deeper than %d, items dropped", MaxDepth))
	default:
		node.Items = d.nodes(path+".items", items, depth+1)
	}

	return node, true
}

func (d *decoder) requiredString(path string, elem gjson.Result, field string) string {
	v := elem.Get(field)
	if v.Type != gjson.String || v.Str == "" {
		d.report(path, field+" is required, node dropped")
		return ""
	}
	return v.Str
}

func (d *decoder) optionalString(elem gjson.Result, field, path string) string {
	v := elem.Get(field)
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	default:
		d.report(path, "not a string, ignored")
		return ""
	}
}

// props keeps scalar values; numbers and booleans are stringified.
func (d *decoder) props(path string, v gjson.Result) map[string]string {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if !v.IsObject() {
		d.report(path, "not an object, ignored")
		return nil
	}

	props := make(map[string]string)
	v.ForEach(func(k, val gjson.Result) bool {
		switch val.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			props[k.String()] = val.String()
		case gjson.Null:
		default:
			d.report(path+"."+k.String(), "not a scalar, ignored")
		}
		return true
	})

	if len(props) == 0 {
		return nil
	}
	return props
}
