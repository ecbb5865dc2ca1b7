package appcore

import "context"

// UseCase is implemented by every command and query handler.
type UseCase[TCommand any, TResult any] interface {
	Execute(ctx context.Context, cmd TCommand) (TResult, error)
}

// Result wraps the value produced by a use case.
type Result[T any] struct {
	Value   T
	Version int
}
