package ast

import (
	"context"
	"io"

	"github.com/goccy/go-yaml"
)

// Dump writes a YAML description of nodes to w.
func Dump(ctx context.Context, w io.Writer, nodes []Node) error {
	out, err := yaml.MarshalContext(ctx, ToList(nodes), yaml.Indent(2))
	if err != nil {
		return err
	}

	_, err = w.Write(out)

	return err
}

// ToList converts nodes into generic data suitable for serialization.
func ToList(nodes []Node) []any {
	list := make([]any, 0, len(nodes))
	for _, n := range nodes {
		list = append(list, toMap(n))
	}

	return list
}

func toMap(n Node) map[string]any {
	switch t := n.(type) {
	case *Raw:
		return map[string]any{
			"raw": string(t.Text),
			"pos": t.Position.String(),
		}

	case *Interpolation:
		return map[string]any{
			"expr": t.Expr.Source,
			"pos":  t.Position.String(),
		}

	case *Tag:
		m := map[string]any{
			"tag": t.Name,
			"pos": t.Position.String(),
		}

		if len(t.Args) > 0 {
			args := make([]any, 0, len(t.Args))
			for _, a := range t.Args {
				if a.Name != "" {
					args = append(args, a.Name+" in "+a.Expr.Source)
				} else {
					args = append(args, a.Expr.Source)
				}
			}

			m["args"] = args
		}

		if t.HasBody() {
			m["body"] = ToList(t.Body)
		}

		if t.Next != nil {
			m["next"] = toMap(t.Next)
		}

		return m

	default:
		return map[string]any{"unknown": true}
	}
}
