package catalog_repo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"sorvetao/internal/domain/catalogs/client"
	"sorvetao/internal/infrastructure/storage/postgres"
)

const clientsTable = "cat_clients"

// DefaultSearchLimit caps client searches without an explicit limit.
const DefaultSearchLimit = 20

// ClientRepo implements client.Repository.
type ClientRepo struct {
	baseRepo[client.Client]
}

var _ client.Repository = (*ClientRepo)(nil)

// NewClientRepo creates a new client repository.
func NewClientRepo(txManager *postgres.TxManager) *ClientRepo {
	return &ClientRepo{
		baseRepo: newBaseRepo[client.Client](txManager, clientsTable, "client", postgres.ExtractDBColumns[client.Client]()),
	}
}

// GetByID retrieves a client by ID.
func (r *ClientRepo) GetByID(ctx context.Context, clientID string) (*client.Client, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": clientID}), clientID)
}

// Search finds clients by name, contact, email or CNPJ.
func (r *ClientRepo) Search(ctx context.Context, term string, limit int) ([]*client.Client, error) {
	var list []*client.Client
	err := r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		list, err = r.selectAll(ctx, r.searchQuery(term, limit))
		return err
	})
	return list, err
}

func (r *ClientRepo) searchQuery(term string, limit int) squirrel.SelectBuilder {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := r.baseSelect().OrderBy("name").Limit(uint64(limit))

	term = strings.TrimSpace(term)
	if term == "" {
		return q
	}

	pattern := "%" + escapeLike(term) + "%"
	cond := squirrel.Or{
		squirrel.ILike{"name": pattern},
		squirrel.ILike{"contact_person": pattern},
		squirrel.ILike{"email": pattern},
	}
	if digits := onlyDigits(term); digits != "" {
		cond = append(cond, squirrel.Like{"regexp_replace(document, '\\D', '', 'g')": "%" + digits + "%"})
	}
	return q.Where(cond)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
