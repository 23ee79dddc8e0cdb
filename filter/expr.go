package filter

import (
	"context"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式做业务过滤：表达式为 true 的候选保留，其余过滤。
//
// 示例：`room.capacity >= 4 && !(room.category == "SIMULATOR")`
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式，语法或类型错误返回 INVALID_INPUT。
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: p}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

// Expr 返回原始表达式
func (f *ExprFilter) Expr() string { return f.program.String() }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	keep, err := f.program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
