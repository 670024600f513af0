package postgres

import (
	"fmt"
	"strings"

	"society/admin-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type queryBuilder struct {
	conditions []string
	args       []any
}

// arg binds value and returns its placeholder.
func (qb *queryBuilder) arg(value any) string {
	qb.args = append(qb.args, value)
	return fmt.Sprintf("$%d", len(qb.args))
}

func (qb *queryBuilder) add(condition string) {
	qb.conditions = append(qb.conditions, condition)
}

func (qb *queryBuilder) build() (string, []any) {
	if len(qb.conditions) == 0 {
		return "", qb.args
	}
	return " WHERE " + strings.Join(qb.conditions, " AND "), qb.args
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = ident(name)
	}
	return strings.Join(quoted, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func normalizeRows(records []map[string]any) []store.Row {
	rows := make([]store.Row, len(records))
	for i, record := range records {
		rows[i] = normalizeRow(record)
	}
	return rows
}

// normalizeRow converts driver specific values (uuid byte arrays) into the
// plain forms the rest of the service works with.
func normalizeRow(record map[string]any) store.Row {
	row := make(store.Row, len(record))
	for k, v := range record {
		if b, ok := v.([16]byte); ok {
			row[k] = uuid.UUID(b).String()
			continue
		}
		row[k] = v
	}
	return row
}
