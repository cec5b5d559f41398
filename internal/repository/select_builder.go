package repository

import (
	"strconv"
	"strings"
)

// selectBuilder appends conditions, ordering and paging to a base query whose
// own placeholders are already bound in args.
type selectBuilder struct {
	sb   strings.Builder
	args []interface{}
}

func newSelect(base string, args ...interface{}) *selectBuilder {
	b := &selectBuilder{args: args}
	b.sb.WriteString(base)
	return b
}

func (b *selectBuilder) bind(v interface{}) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// where adds "AND col = $n". The base query must already have a WHERE.
func (b *selectBuilder) where(col string, v interface{}) {
	b.whereExpr(col + " = " + b.bind(v))
}

func (b *selectBuilder) whereExpr(expr string) {
	b.sb.WriteString(" AND ")
	b.sb.WriteString(expr)
}

func (b *selectBuilder) orderBy(order string) {
	b.sb.WriteString(" ORDER BY ")
	b.sb.WriteString(order)
}

// page adds LIMIT and OFFSET when positive.
func (b *selectBuilder) page(limit, offset int) {
	if limit > 0 {
		b.sb.WriteString(" LIMIT " + b.bind(limit))
	}
	if offset > 0 {
		b.sb.WriteString(" OFFSET " + b.bind(offset))
	}
}

func (b *selectBuilder) String() string { return b.sb.String() }
