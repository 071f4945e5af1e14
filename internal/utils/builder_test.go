package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	query, args := NewQueryBuilder("public").
		Select("lab_id", "title").
		From("labs").
		Where("is_published = ?", true).
		AndGroup(func(qb QueryBuilder) {
			qb.Where("difficulty = ?", "beginner").Or("points > ?", 10)
		}).
		OrderBy("lab_id", true).
		Limit(50).
		Build()

	assert.Equal(t,
		"SELECT lab_id, title FROM public.labs WHERE is_published = ? AND (difficulty = ? OR points > ?) ORDER BY lab_id ASC LIMIT 50",
		query)
	assert.Equal(t, []interface{}{true, "beginner", 10}, args)
}

func TestSelect_NoSchema(t *testing.T) {
	query, args := NewQueryBuilder("").Select("id").From("users").Build()
	assert.Equal(t, "SELECT id FROM users", query)
	assert.Empty(t, args)
}

func TestSelect_EmptyGroupSkipped(t *testing.T) {
	query, args := NewQueryBuilder("s").
		Select("id").From("t").
		OrGroup(func(qb QueryBuilder) {}).
		Where("a = ?", 1).
		Build()
	assert.Equal(t, "SELECT id FROM s.t WHERE a = ?", query)
	assert.Equal(t, []interface{}{1}, args)
}

func TestInsert_Batch(t *testing.T) {
	query, args := NewQueryBuilder("public").
		Insert("lab_id", "test_name", "points").
		Into("lab_test_cases").
		Values("lab-1", "a", 1).
		Values("lab-1", "b", 2).
		Build()

	assert.Equal(t,
		"INSERT INTO public.lab_test_cases (lab_id, test_name, points) VALUES (?, ?, ?), (?, ?, ?)",
		query)
	assert.Equal(t, []interface{}{"lab-1", "a", 1, "lab-1", "b", 2}, args)
}

func TestInsert_Upsert(t *testing.T) {
	query, _ := NewQueryBuilder("public").
		Insert("id", "name").
		Into("users").
		Values(1, "x").
		OnConflict("id").
		SetExclude("name").
		Returning("id").
		Build()
	assert.Equal(t,
		"INSERT INTO public.users (id, name) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name RETURNING id",
		query)

	query, _ = NewQueryBuilder("public").
		Insert("id").Into("users").Values(1).OnConflict("id").DoNothing().Build()
	assert.Equal(t, "INSERT INTO public.users (id) VALUES (?) ON CONFLICT (id) DO NOTHING", query)
}

func TestInsert_Invalid(t *testing.T) {
	query, args := NewQueryBuilder("public").Insert("a", "b").Into("t").Values(1).Build()
	assert.Empty(t, query)
	assert.Nil(t, args)

	query, _ = NewQueryBuilder("public").Insert("a").Into("t").Build()
	assert.Empty(t, query)
}

func TestUpdate(t *testing.T) {
	query, args := NewQueryBuilder("public").
		Update("labs", UpdateData{"title": "New", "points": 20}).
		Where("lab_id = ?", "lab-1").
		Build()

	assert.Equal(t, "UPDATE public.labs SET points = ?, title = ? WHERE lab_id = ?", query)
	assert.Equal(t, []interface{}{20, "New", "lab-1"}, args)
}

func TestDelete(t *testing.T) {
	query, args := NewQueryBuilder("public").Delete("labs").Where("lab_id = ?", "lab-1").Build()
	assert.Equal(t, "DELETE FROM public.labs WHERE lab_id = ?", query)
	assert.Equal(t, []interface{}{"lab-1"}, args)

	query, _ = NewQueryBuilder("public").Delete("labs").Build()
	assert.Empty(t, query, "unconditional delete must not render")
}

func TestSelect_OnlyEmptyGroups(t *testing.T) {
	query, args := NewQueryBuilder("s").
		Select("id").From("t").
		AndGroup(func(qb QueryBuilder) {}).
		Build()
	assert.Equal(t, "SELECT id FROM s.t", query)
	assert.Empty(t, args)
}

func TestDelete_EmptyGroupIsUnconditional(t *testing.T) {
	query, _ := NewQueryBuilder("s").
		Delete("t").
		AndGroup(func(qb QueryBuilder) {}).
		Build()
	assert.Empty(t, query)
}
