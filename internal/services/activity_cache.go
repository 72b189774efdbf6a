package services

import (
	"context"

	types "github.com/yungbote/learnsync/internal/domain"
)

// ActivityCache memoizes activity lookups by external id. Implementations
// swallow their own failures; a failed Get is a miss.
type ActivityCache interface {
	Get(ctx context.Context, externalID string) (*types.Activity, bool)
	Set(ctx context.Context, a *types.Activity)
}

type noopActivityCache struct{}

func NewNoopActivityCache() ActivityCache { return noopActivityCache{} }

func (noopActivityCache) Get(context.Context, string) (*types.Activity, bool) { return nil, false }
func (noopActivityCache) Set(context.Context, *types.Activity)                {}
