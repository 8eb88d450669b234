package txmanager

import (
	"context"
	"sync"
)

type hooks struct {
	mu   sync.Mutex
	base context.Context
	fns  []func(ctx context.Context)
}

type hooksKey struct{}

// AfterCommit регистрирует функцию, которая выполнится после фиксации внешней транзакции.
// Функция получает контекст без транзакции и без отмены родительского запроса.
// Вне транзакции функция выполняется сразу. При откате зарегистрированные функции отбрасываются.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	h, ok := ctx.Value(hooksKey{}).(*hooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

// WithHooks создаёт контекст, собирающий after-commit функции.
// ctx не должен содержать транзакцию: он становится контекстом выполнения функций.
// finish(true) выполняет их по порядку, finish(false) отбрасывает.
func WithHooks(ctx context.Context) (context.Context, func(committed bool)) {
	h := &hooks{base: context.WithoutCancel(ctx)}
	return context.WithValue(ctx, hooksKey{}, h), func(committed bool) {
		h.mu.Lock()
		fns := h.fns
		h.fns = nil
		h.mu.Unlock()

		if !committed {
			return
		}
		for _, fn := range fns {
			fn(h.base)
		}
	}
}
