package server

import "context"

// Server is a long-running listener owned by the application lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
