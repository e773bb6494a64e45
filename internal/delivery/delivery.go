// Package delivery defines the entry points that drive the application.
package delivery

import "context"

// Delivery is a long-running entry point started by main.
type Delivery interface {
	Serve(ctx context.Context) error
}
