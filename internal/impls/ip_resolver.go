package impls

import "context"

// IPResolver returns the address reported in every response.
type IPResolver interface {
	Resolve(ctx context.Context) (string, error)
}
