package querybuilder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// QueryBuilder assembles SQL with "?" placeholders. Callers rebind to the
// driver's bindvar style, e.g. sqlx.Rebind(sqlx.DOLLAR, query).
type QueryBuilder interface {
	Select(cols ...string) QueryBuilder
	From(table string) QueryBuilder
	Into(table string) QueryBuilder
	Where(clause string, args ...interface{}) QueryBuilder

	Or(clause string, args ...interface{}) QueryBuilder
	And(clause string, args ...interface{}) QueryBuilder

	AndGroup(fn func(qb QueryBuilder)) QueryBuilder
	OrGroup(fn func(qb QueryBuilder)) QueryBuilder

	OrderBy(col string, asc bool) QueryBuilder
	Limit(n int) QueryBuilder

	Insert(cols ...string) QueryBuilder
	Values(values ...interface{}) QueryBuilder
	OnConflict(cols ...string) QueryBuilder
	DoNothing() QueryBuilder
	SetExclude(cols ...string) QueryBuilder

	Update(table string, data UpdateData) QueryBuilder
	Delete(table string) QueryBuilder
	Returning(cols ...string) QueryBuilder

	Build() (string, []interface{})

	getConditions() []Condition
}

type statement int

const (
	stmtSelect statement = iota
	stmtInsert
	stmtUpdate
	stmtDelete
)

type queryBuilder struct {
	stmt        statement
	schema      string
	table       string
	cols        []string
	conditions  []Condition
	values      InsertRows
	updateData  UpdateData
	orderBy     []string
	limit       int
	onConflict  []string
	excludeCols []string
	returning   []string
}

func NewQueryBuilder(schema string) QueryBuilder {
	return &queryBuilder{
		schema: schema,
	}
}

func (q *queryBuilder) getConditions() []Condition {
	return q.conditions
}

func (q *queryBuilder) Select(cols ...string) QueryBuilder {
	q.stmt = stmtSelect
	q.cols = append(q.cols, cols...)
	return q
}

func (q *queryBuilder) From(table string) QueryBuilder {
	q.table = table
	return q
}

func (q *queryBuilder) Into(table string) QueryBuilder {
	q.table = table
	return q
}

func (q *queryBuilder) Insert(cols ...string) QueryBuilder {
	q.stmt = stmtInsert
	q.cols = cols
	return q
}

// Values appends one row; call it once per row for batch inserts.
func (q *queryBuilder) Values(values ...interface{}) QueryBuilder {
	q.values = append(q.values, values)
	return q
}

func (q *queryBuilder) OnConflict(cols ...string) QueryBuilder {
	q.onConflict = cols
	return q
}

func (q *queryBuilder) DoNothing() QueryBuilder {
	q.excludeCols = nil
	return q
}

// SetExclude turns ON CONFLICT into an upsert copying cols from EXCLUDED.
func (q *queryBuilder) SetExclude(cols ...string) QueryBuilder {
	q.excludeCols = cols
	return q
}

func (q *queryBuilder) Update(table string, data UpdateData) QueryBuilder {
	q.stmt = stmtUpdate
	q.table = table
	q.updateData = data
	return q
}

func (q *queryBuilder) Delete(table string) QueryBuilder {
	q.stmt = stmtDelete
	q.table = table
	return q
}

func (q *queryBuilder) Returning(cols ...string) QueryBuilder {
	q.returning = cols
	return q
}

func (q *queryBuilder) Where(clause string, args ...interface{}) QueryBuilder {
	return q.And(clause, args...)
}

func (q *queryBuilder) And(clause string, args ...interface{}) QueryBuilder {
	q.conditions = append(q.conditions, clauseCond(CondTypeAnd, clause, args))
	return q
}

func (q *queryBuilder) Or(clause string, args ...interface{}) QueryBuilder {
	q.conditions = append(q.conditions, clauseCond(CondTypeOr, clause, args))
	return q
}

func (q *queryBuilder) group(condType CondType, fn func(qb QueryBuilder)) QueryBuilder {
	sub := NewQueryBuilder(q.schema)
	fn(sub)
	q.conditions = append(q.conditions, groupCond(condType, sub.getConditions()))
	return q
}

func (q *queryBuilder) AndGroup(fn func(qb QueryBuilder)) QueryBuilder {
	return q.group(CondTypeAnd, fn)
}

func (q *queryBuilder) OrGroup(fn func(qb QueryBuilder)) QueryBuilder {
	return q.group(CondTypeOr, fn)
}

func (q *queryBuilder) OrderBy(col string, asc bool) QueryBuilder {
	orderVector := "ASC"
	if !asc {
		orderVector = "DESC"
	}
	q.orderBy = append(q.orderBy, fmt.Sprintf("%s %s", col, orderVector))
	return q
}

func (q *queryBuilder) Limit(n int) QueryBuilder {
	q.limit = n
	return q
}

// Build renders the statement. An invalid insert (no rows, or a row whose
// width differs from the column list) renders as "".
func (q *queryBuilder) Build() (string, []interface{}) {
	switch q.stmt {
	case stmtInsert:
		return q.buildInsert()
	case stmtUpdate:
		return q.buildUpdate()
	case stmtDelete:
		return q.buildDelete()
	default:
		return q.buildSelect()
	}
}

func (q *queryBuilder) qualifiedTable() string {
	if q.schema == "" {
		return q.table
	}
	return fmt.Sprintf("%s.%s", q.schema, q.table)
}

func (q *queryBuilder) appendWhere(query string, args []interface{}) (string, []interface{}) {
	condition, condArgs := renderConditions(q.conditions)
	if condition == "" {
		return query, args
	}
	return query + " WHERE " + condition, append(args, condArgs...)
}

func (q *queryBuilder) appendReturning(query string) string {
	if len(q.returning) == 0 {
		return query
	}
	return query + " RETURNING " + strings.Join(q.returning, ", ")
}

func (q *queryBuilder) buildSelect() (string, []interface{}) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(q.cols, ", "), q.qualifiedTable())
	query, args := q.appendWhere(query, nil)

	if len(q.orderBy) > 0 {
		query += " ORDER BY " + strings.Join(q.orderBy, ", ")
	}
	if q.limit > 0 {
		query += " LIMIT " + strconv.Itoa(q.limit)
	}
	return query, args
}

func (q *queryBuilder) buildInsert() (string, []interface{}) {
	if len(q.values) == 0 || len(q.cols) == 0 {
		return "", nil
	}

	tuples := make([]string, 0, len(q.values))
	args := make([]interface{}, 0, len(q.values)*len(q.cols))
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(q.cols)), ", ") + ")"
	for _, row := range q.values {
		if len(row) != len(q.cols) {
			return "", nil
		}
		tuples = append(tuples, placeholders)
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		q.qualifiedTable(), strings.Join(q.cols, ", "), strings.Join(tuples, ", "))

	if len(q.onConflict) > 0 {
		query += fmt.Sprintf(" ON CONFLICT (%s)", strings.Join(q.onConflict, ", "))
		if len(q.excludeCols) == 0 {
			query += " DO NOTHING"
		} else {
			sets := make([]string, 0, len(q.excludeCols))
			for _, col := range q.excludeCols {
				sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
			}
			query += " DO UPDATE SET " + strings.Join(sets, ", ")
		}
	}

	return q.appendReturning(query), args
}

func (q *queryBuilder) buildUpdate() (string, []interface{}) {
	cols := q.updateData.Columns()
	setClause := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		setClause = append(setClause, fmt.Sprintf("%s = ?", col))
		args = append(args, q.updateData[col])
	}

	query := fmt.Sprintf("UPDATE %s SET %s", q.qualifiedTable(), strings.Join(setClause, ", "))
	query, args = q.appendWhere(query, args)
	return q.appendReturning(query), args
}

// buildDelete refuses to render an unconditional DELETE.
func (q *queryBuilder) buildDelete() (string, []interface{}) {
	if condition, _ := renderConditions(q.conditions); condition == "" {
		return "", nil
	}
	query, args := q.appendWhere("DELETE FROM "+q.qualifiedTable(), nil)
	return q.appendReturning(query), args
}

// UpdateData maps column names to their new values.
type UpdateData map[string]interface{}

// Columns returns the column names sorted, so rendering is deterministic.
func (d UpdateData) Columns() []string {
	cols := make([]string, 0, len(d))
	for col := range d {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
