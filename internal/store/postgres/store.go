package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"society/admin-service/internal/metrics"
	"society/admin-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("society/admin-service/store/postgres")

type Store struct {
	pool    *pgxpool.Pool
	catalog store.Catalog
}

func NewStore(pool *pgxpool.Pool, catalog store.Catalog) *Store {
	return &Store{pool: pool, catalog: catalog}
}

func (s *Store) Select(ctx context.Context, req store.SelectRequest) (result store.SelectResult, err error) {
	ctx, finish := s.begin(ctx, "select", req.Collection)
	defer func() { finish(err) }()

	plan, err := s.catalog.Prepare(req)
	if err != nil {
		return store.SelectResult{}, err
	}

	qb := &queryBuilder{}
	for _, f := range req.Filters {
		qb.add(fmt.Sprintf("%s = %s", ident(f.Column), qb.arg(f.Value)))
	}
	if req.Search.Active() {
		pattern := qb.arg("%" + escapeLike(strings.TrimSpace(req.Search.Term)) + "%")
		ors := make([]string, 0, len(req.Search.Fields))
		for _, field := range req.Search.Fields {
			ors = append(ors, fmt.Sprintf("%s::text ILIKE %s", ident(field), pattern))
		}
		qb.add("(" + strings.Join(ors, " OR ") + ")")
	}
	where, args := qb.build()
	table := ident(req.Collection)

	if req.Count == store.CountExact {
		if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+where, args...).Scan(&result.Count); err != nil {
			if isInvalidText(err) {
				return store.SelectResult{Rows: []store.Row{}}, nil
			}
			return store.SelectResult{}, fmt.Errorf("count %s: %w", req.Collection, err)
		}
	}

	var query strings.Builder
	query.WriteString("SELECT ")
	query.WriteString(identList(plan.Columns))
	query.WriteString(" FROM ")
	query.WriteString(table)
	query.WriteString(where)
	if req.Order != nil {
		direction := "DESC"
		if req.Order.Ascending {
			direction = "ASC"
		}
		query.WriteString(fmt.Sprintf(" ORDER BY %s %s", ident(req.Order.Column), direction))
		if req.Order.Column != "id" && plan.Collection.HasColumn("id") {
			query.WriteString(", " + ident("id") + " ASC")
		}
	}
	if req.Range != nil {
		args = append(args, req.Range.Limit(), req.Range.From)
		query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)))
	}

	rows, err := s.pool.Query(ctx, query.String(), args...)
	if err != nil {
		if isInvalidText(err) {
			return store.SelectResult{Rows: []store.Row{}}, nil
		}
		return store.SelectResult{}, fmt.Errorf("select %s: %w", req.Collection, err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		if isInvalidText(err) {
			return store.SelectResult{Rows: []store.Row{}}, nil
		}
		return store.SelectResult{}, fmt.Errorf("scan %s: %w", req.Collection, err)
	}
	result.Rows = normalizeRows(records)
	if err := plan.Attach(ctx, result.Rows, s.fetch, plan.Collection.TenantValue(req.Filters)); err != nil {
		return store.SelectResult{}, err
	}
	if req.Count != store.CountExact {
		result.Count = len(result.Rows)
	}
	return result, nil
}

func (s *Store) fetch(ctx context.Context, plan store.Plan, column string, values []string, filters []store.Eq) ([]store.Row, error) {
	qb := &queryBuilder{}
	qb.add(fmt.Sprintf("%s::text = ANY(%s)", ident(column), qb.arg(values)))
	for _, f := range filters {
		qb.add(fmt.Sprintf("%s = %s", ident(f.Column), qb.arg(f.Value)))
	}
	where, args := qb.build()
	query := fmt.Sprintf("SELECT %s FROM %s%s", identList(plan.Columns), ident(plan.Collection.Name), where)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	return normalizeRows(records), nil
}

func (s *Store) Insert(ctx context.Context, collection string, values store.Row) (row store.Row, err error) {
	ctx, finish := s.begin(ctx, "insert", collection)
	defer func() { finish(err) }()

	coll, err := s.catalog.Lookup(collection)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.CheckReferences(ctx, collection, values, coll.TenantOf(values), s.exists); err != nil {
		return nil, err
	}
	values = values.Clone()
	if values.ID() == "" {
		values["id"] = uuid.NewString()
	}
	keys, err := s.catalog.WritableColumns(collection, values)
	if err != nil {
		return nil, err
	}
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[key]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *", ident(collection), identList(keys), strings.Join(placeholders, ", "))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	record, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	return normalizeRow(record), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, values store.Row, filters ...store.Eq) (row store.Row, err error) {
	ctx, finish := s.begin(ctx, "update", collection)
	defer func() { finish(err) }()

	values = values.Clone()
	delete(values, "id")
	keys, err := s.catalog.WritableColumns(collection, values)
	if err != nil {
		return nil, err
	}
	coll, err := s.catalog.Lookup(collection)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.CheckReferences(ctx, collection, values, coll.TenantValue(filters), s.exists); err != nil {
		return nil, err
	}

	qb := &queryBuilder{}
	sets := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		sets = append(sets, fmt.Sprintf("%s = %s", ident(key), qb.arg(values[key])))
	}
	if coll.HasColumn("updated_at") && values["updated_at"] == nil {
		sets = append(sets, ident("updated_at")+" = NOW()")
	}
	qb.add(fmt.Sprintf("%s = %s", ident("id"), qb.arg(id)))
	for _, f := range filters {
		if !coll.HasColumn(f.Column) {
			return nil, fmt.Errorf("%w: %s.%s", store.ErrUnknownColumn, collection, f.Column)
		}
		qb.add(fmt.Sprintf("%s = %s", ident(f.Column), qb.arg(f.Value)))
	}
	where, args := qb.build()
	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", ident(collection), strings.Join(sets, ", "), where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}
	record, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}
	return normalizeRow(record), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string, filters ...store.Eq) (err error) {
	ctx, finish := s.begin(ctx, "delete", collection)
	defer func() { finish(err) }()

	coll, err := s.catalog.Lookup(collection)
	if err != nil {
		return err
	}
	qb := &queryBuilder{}
	qb.add(fmt.Sprintf("%s = %s", ident("id"), qb.arg(id)))
	for _, f := range filters {
		if !coll.HasColumn(f.Column) {
			return fmt.Errorf("%w: %s.%s", store.ErrUnknownColumn, collection, f.Column)
		}
		qb.add(fmt.Sprintf("%s = %s", ident(f.Column), qb.arg(f.Value)))
	}
	where, args := qb.build()
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+ident(collection)+where, args...)
	if isInvalidText(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// exists reports whether coll holds id under filters. An id the column type
// cannot parse matches nothing.
func (s *Store) exists(ctx context.Context, coll store.Collection, id string, filters []store.Eq) (bool, error) {
	qb := &queryBuilder{}
	qb.add(fmt.Sprintf("%s = %s", ident("id"), qb.arg(id)))
	for _, f := range filters {
		qb.add(fmt.Sprintf("%s = %s", ident(f.Column), qb.arg(f.Value)))
	}
	where, args := qb.build()
	var found bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+ident(coll.Name)+where+")", args...).Scan(&found)
	if isInvalidText(err) {
		return false, nil
	}
	return found, err
}

// isInvalidText reports a value postgres could not parse for the column
// type, such as a malformed uuid.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrInvalidText
}

const pgerrInvalidText = "22P02"

func (s *Store) begin(ctx context.Context, operation, collection string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "store."+operation, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.collection.name", collection),
	))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		metrics.ObserveStore(operation, collection, start, err)
	}
}
