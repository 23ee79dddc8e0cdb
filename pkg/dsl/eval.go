package dsl

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/roomrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("room", cel.DynType),
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的候选过滤表达式，使用 CEL (Common Expression Language)。
// 编译一次，可并发多次求值。
//
// 可用变量：
//   - room.id / room.name / room.category / room.capacity / room.price
//     room.status / room.consoles / room.controllers / room.age_days
//   - item.score / item.features
//   - label.<key>：Item Label 的 value
//   - rctx.user_id / rctx.params
//
// 示例：
//   - `room.category in ["VIP", "PS_SERIES"]`
//   - `room.capacity >= 4 && room.price <= 50000.0`
//   - `"PS5_PRO" in room.consoles`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，表达式必须返回布尔值。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "compile filter expression", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Eval 对单个候选求值。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx, rctx.Clock()))
	if err != nil {
		// 访问不存在的 key 会报错，表达式应先用 has() 检查
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext, now time.Time) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	features := make(map[string]any, len(item.Features))
	for k, v := range item.Features {
		features[k] = v
	}

	room := map[string]any{"id": item.ID}
	if r := item.Room; r != nil {
		consoles := make([]string, 0, len(r.Units))
		controllers := 0
		for _, u := range r.Units {
			consoles = append(consoles, string(u.ConsoleType))
			controllers += u.Controllers
		}
		room = map[string]any{
			"id":          r.ID,
			"name":        r.Name,
			"category":    string(r.Category),
			"capacity":    int64(r.Capacity),
			"price":       r.PricePerHour,
			"status":      string(r.Status),
			"consoles":    consoles,
			"controllers": int64(controllers),
			"age_days":    int64(now.Sub(r.CreatedAt) / (24 * time.Hour)),
		}
	}

	ctxInput := map[string]any{"user_id": "", "params": map[string]any{}}
	if rctx != nil {
		ctxInput["user_id"] = rctx.UserID
		if rctx.Params != nil {
			ctxInput["params"] = rctx.Params
		}
	}

	return map[string]any{
		"room": room,
		"item": map[string]any{
			"id":       item.ID,
			"score":    item.Score,
			"features": features,
		},
		"label": labels,
		"rctx":  ctxInput,
	}
}
