package buildings

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-app/atrium/internal/shared"
)

// Repository reads the building catalog from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// List returns buildings matching the filter ordered by name.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Building, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	match := func(column string, value *string) {
		if value != nil {
			conds = append(conds, fmt.Sprintf(`%s = %s`, column, arg(*value)))
		}
	}
	match(`"buildingName"`, filter.Name)
	match(`"addressLine1"`, filter.AddressLine1)
	match(`"addressLine2"`, filter.AddressLine2)
	match(`"city"`, filter.City)
	match(`"province"`, filter.Province)
	match(`"country"`, filter.Country)
	match(`"postalCode"`, filter.PostalCode)

	query := `
		SELECT "buildingID", "buildingName", "addressLine1", "addressLine2",
		       "city", "province", "country", "postalCode"
		FROM "Buildings"`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY "buildingName"`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Infra(err)
	}
	defer rows.Close()

	var out []Building
	for rows.Next() {
		var b Building
		if err := rows.Scan(&b.ID, &b.Name, &b.AddressLine1, &b.AddressLine2,
			&b.City, &b.Province, &b.Country, &b.PostalCode); err != nil {
			return nil, shared.Infra(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Infra(err)
	}
	return out, nil
}
