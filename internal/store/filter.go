package store

import (
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// whereClause collects AND-ed conditions. Each condition carries one "?"
// which is rewritten to the next positional parameter.
type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// textArray binds a slice of string-kinded values for use with = ANY(?).
func textArray[T ~string](values []T) any {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = string(value)
	}
	return pq.Array(out)
}
