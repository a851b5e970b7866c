package database

import "github.com/uptrace/bun"

// QueryBuilder provides a fluent, type-safe API for building database queries.
// It runs against any bun.IDB, so the same builder works on the pool and inside a transaction.
type QueryBuilder[T any] struct {
	db bun.IDB

	// Query clauses
	wheres    []*WhereClause
	orders    []*OrderClause
	relations []*RelationClause
}

// WhereClause represents a WHERE condition
type WhereClause struct {
	Column   string
	Operator string
	Value    any
}

// OrderClause represents an ORDER BY clause
type OrderClause struct {
	Column    string
	Direction OrderDirection
}

// RelationClause represents a bun relation to preload
type RelationClause struct {
	Name  string
	Apply []func(*bun.SelectQuery) *bun.SelectQuery
}

// OrderDirection represents sort direction
type OrderDirection string

const (
	ASC  OrderDirection = "ASC"
	DESC OrderDirection = "DESC"
)

// Query creates a new QueryBuilder instance
func Query[T any](db bun.IDB) *QueryBuilder[T] {
	return &QueryBuilder[T]{
		db:        db,
		wheres:    []*WhereClause{},
		orders:    []*OrderClause{},
		relations: []*RelationClause{},
	}
}

// Where adds a simple WHERE condition (column = value)
func (q *QueryBuilder[T]) Where(column string, value any) *QueryBuilder[T] {
	return q.WhereOp(column, "=", value)
}

// WhereOp adds a WHERE condition with a custom operator
func (q *QueryBuilder[T]) WhereOp(column, operator string, value any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, &WhereClause{
		Column:   column,
		Operator: operator,
		Value:    value,
	})
	return q
}

// OrderBy adds an ORDER BY clause
func (q *QueryBuilder[T]) OrderBy(column string, direction OrderDirection) *QueryBuilder[T] {
	q.orders = append(q.orders, &OrderClause{
		Column:    column,
		Direction: direction,
	})
	return q
}

// Relation preloads a bun relation, optionally customising the relation query
func (q *QueryBuilder[T]) Relation(name string, apply ...func(*bun.SelectQuery) *bun.SelectQuery) *QueryBuilder[T] {
	q.relations = append(q.relations, &RelationClause{Name: name, Apply: apply})
	return q
}

// applyWheres renders the WHERE clauses onto any bun query
func (q *QueryBuilder[T]) applyWheres(qb bun.QueryBuilder) bun.QueryBuilder {
	for _, where := range q.wheres {
		qb = qb.Where("? "+where.Operator+" ?", bun.Ident(where.Column), where.Value)
	}
	return qb
}

// buildSelect assembles a select query for the given model destination
func (q *QueryBuilder[T]) buildSelect(model any) *bun.SelectQuery {
	query := q.db.NewSelect().Model(model)
	query = query.ApplyQueryBuilder(q.applyWheres)

	for _, order := range q.orders {
		query = query.OrderExpr("? "+string(order.Direction), bun.Ident(order.Column))
	}

	for _, rel := range q.relations {
		query = query.Relation(rel.Name, rel.Apply...)
	}

	return query
}
