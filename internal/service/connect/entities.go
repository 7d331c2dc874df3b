package connect

import (
	"fmt"
	"strings"

	"github.com/brightdesk/books-connect/internal/domain"
)

// entitySpec maps a caller-facing entity kind onto the provider record type
// and an optional filter clause.
type entitySpec struct {
	Entity string
	Filter string
}

// entityTable is the closed set of entity kinds the service exposes. Kinds
// outside the table are rejected before any store or provider call.
var entityTable = map[string]entitySpec{
	"accounts":             {Entity: "Account"},
	"bank-accounts":        {Entity: "Account", Filter: "AccountType = 'Bank'"},
	"credit-card-accounts": {Entity: "Account", Filter: "AccountType = 'Credit Card'"},
	"expense-accounts":     {Entity: "Account", Filter: "AccountType = 'Expense'"},
	"vendors":              {Entity: "Vendor"},
	"customers":            {Entity: "Customer"},
	"bills":                {Entity: "Bill"},
	"payments":             {Entity: "Payment"},
}

// validateEntityTable runs at construction so a malformed table fails the
// process instead of a request.
func validateEntityTable() error {
	for kind, spec := range entityTable {
		if strings.TrimSpace(kind) == "" || strings.TrimSpace(spec.Entity) == "" {
			return fmt.Errorf("entity table entry %q is incomplete", kind)
		}
	}
	return nil
}

// entityQuery resolves a kind to its provider select statement.
func entityQuery(kind string) (string, error) {
	spec, ok := entityTable[kind]
	if !ok {
		return "", fmt.Errorf("entity %q: %w", kind, domain.ErrUnknownEntity)
	}
	query := "select * from " + spec.Entity
	if spec.Filter != "" {
		query += " where " + spec.Filter
	}
	return query, nil
}
