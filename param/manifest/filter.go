package manifest

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/joshuapare/paramkit/param"
)

// rowEnv is what a where filter can see.
type rowEnv struct {
	ID    uint64 `expr:"id"`
	Index int    `expr:"index"`
}

func compileFilter(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(rowEnv{}), expr.AsBool())
}

// match evaluates the filter against row. A Def without a filter matches
// every row.
func (d *Def) match(row param.Row) (bool, error) {
	if d.filter == nil {
		return true, nil
	}
	out, err := expr.Run(d.filter, rowEnv{ID: row.ID, Index: row.Index})
	if err != nil {
		return false, err
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("where: got %T, want bool", out)
	}
	return ok, nil
}
