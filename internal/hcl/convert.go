package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. The decoder fills omitted optional expressions with zero-width
// placeholders, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	isDefined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checked HCL attribute presence.",
		"attribute", attrName, "hcl_range", r.String(), "is_defined", isDefined)
	return isDefined
}

// decodeNumberMap evaluates an expression without variables and converts it
// to a map of numbers. Objects are accepted as long as every attribute is a
// number.
func decodeNumberMap(ctx context.Context, expr hcl.Expression) (map[string]float64, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	target := cty.Map(cty.Number)
	converted, err := convert.Convert(val, target)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), target.FriendlyName(), err)
	}
	if !val.Type().Equals(converted.Type()) {
		ctxlog.FromContext(ctx).Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(), "to", converted.Type().FriendlyName())
	}

	var out map[string]float64
	if err := gocty.FromCtyValue(converted, &out); err != nil {
		return nil, err
	}
	return out, nil
}
