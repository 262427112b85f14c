package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/takeoff"
)

func TestReplaceTakeoffLines_FullReplace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertModel(ctx, createTestModel(t, "m1", "job-1", "Rev A"), takeoff.FromCounts(5, 3))
	require.NoError(t, err)

	replacement := []takeoff.Line{
		{ItemCode: "STD", Name: "Standard", Qty: 4},
		{ItemCode: "BSP", Name: "Baseplate", Qty: 2},
	}
	require.NoError(t, s.ReplaceTakeoffLines(ctx, "m1", replacement))

	materials, err := s.ListMaterials(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Material{
		{ModelID: "m1", Position: 0, ItemCode: "STD", Name: "Standard", Qty: 4},
		{ModelID: "m1", Position: 1, ItemCode: "BSP", Name: "Baseplate", Qty: 2},
	}, materials)

	require.NoError(t, s.ReplaceTakeoffLines(ctx, "m1", nil))
	materials, err = s.ListMaterials(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, materials)
}

func TestListMaterials_TakeoffOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertModel(ctx, createTestModel(t, "m1", "job-1", "Rev A"), takeoff.FromCounts(5, 3))
	require.NoError(t, err)

	materials, err := s.ListMaterials(ctx, "m1")
	require.NoError(t, err)

	var names []string
	for i, m := range materials {
		assert.Equal(t, i, m.Position)
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		"Standard", "Ledger", "Transom", "Baseplate",
		"Guardrail", "Toeboard", "Diagonal", "Tie",
	}, names)
}

func TestReplaceTakeoffLines_UnknownModel(t *testing.T) {
	s := createTestStore(t)

	err := s.ReplaceTakeoffLines(context.Background(), "missing", takeoff.FromCounts(1, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReplaceTakeoffLines_DuplicateCodeRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	original := takeoff.FromCounts(2, 2)
	_, err := s.InsertModel(ctx, createTestModel(t, "m1", "job-1", "Rev A"), original)
	require.NoError(t, err)

	err = s.ReplaceTakeoffLines(ctx, "m1", []takeoff.Line{
		{ItemCode: "STD", Name: "Standard", Qty: 1},
		{ItemCode: "STD", Name: "Standard", Qty: 2},
	})
	require.Error(t, err)

	materials, err := s.ListMaterials(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, materials, len(original))
}

func TestMaterials_RejectNegativeQty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertModel(ctx, createTestModel(t, "m1", "job-1", "Rev A"), []takeoff.Line{
		{ItemCode: "STD", Name: "Standard", Qty: -1},
	})
	assert.Error(t, err)

	_, err = s.GetModel(ctx, "m1")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "model insert must roll back with its materials")
}
