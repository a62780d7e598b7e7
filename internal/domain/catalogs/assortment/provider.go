package assortment

import "context"

// Provider supplies the catalog snapshot a session starts from.
type Provider interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// StaticProvider serves a fixed snapshot.
type StaticProvider struct {
	snapshot *Snapshot
}

// NewStaticProvider validates categories once and serves them forever.
func NewStaticProvider(ctx context.Context, categories []*Category) (*StaticProvider, error) {
	snap, err := NewSnapshot(ctx, categories)
	if err != nil {
		return nil, err
	}
	return &StaticProvider{snapshot: snap}, nil
}

// Load implements Provider.
func (p *StaticProvider) Load(ctx context.Context) (*Snapshot, error) {
	return p.snapshot, nil
}
