package client

import "context"

// Repository defines read access to clients. Client maintenance happens
// elsewhere; order entry only looks clients up.
type Repository interface {
	// GetByID returns apperror NotFound when the client does not exist.
	GetByID(ctx context.Context, id string) (*Client, error)

	// Search matches name, contact person or document, ordered by name.
	Search(ctx context.Context, term string, limit int) ([]*Client, error)
}
