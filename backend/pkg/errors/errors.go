package errors

import "errors"

// ErrOptimisticLock the record was modified by another request.
var ErrOptimisticLock = errors.New("record was modified by another request, reload and retry")

// ErrRedisUnavailable the operation needs redis but no client is configured.
var ErrRedisUnavailable = errors.New("redis is not available")
