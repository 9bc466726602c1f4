package ordering

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNextPosition(t *testing.T) {
	cases := []struct {
		name     string
		existing []int
		want     int
	}{
		{"empty", nil, 1},
		{"dense", []int{1, 2, 3}, 4},
		{"with gaps", []int{1, 4, 2}, 5},
		{"unsorted single", []int{7}, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NextPosition(tc.existing))
		})
	}
}

func TestCloseGap(t *testing.T) {
	require.Equal(t, []int{1, 2}, CloseGap([]int{1, 2, 3}, 2))
	require.Equal(t, []int{1, 2}, CloseGap([]int{1, 2, 3}, 3))
	require.Equal(t, []int{1, 2, 3}, CloseGap([]int{1, 2, 3, 4}, 1))
	require.Empty(t, CloseGap([]int{1}, 1))
}

func TestValidateReorder(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	siblings := []primitive.ObjectID{a, b, c}

	require.NoError(t, ValidateReorder([]Item{{a, 2}, {b, 1}, {c, 3}}, siblings))
	require.NoError(t, ValidateReorder([]Item{{a, 5}}, siblings), "partial payloads are allowed")

	require.ErrorIs(t, ValidateReorder(nil, siblings), ErrEmptyPayload)
	require.ErrorIs(t, ValidateReorder([]Item{{a, 0}}, siblings), ErrInvalidOrder)
	require.ErrorIs(t, ValidateReorder([]Item{{primitive.NewObjectID(), 1}}, siblings), ErrForeignID)
	require.ErrorIs(t, ValidateReorder([]Item{{a, 1}, {a, 2}}, siblings), ErrDuplicateID)
	require.ErrorIs(t, ValidateReorder([]Item{{a, 1}, {b, 1}}, siblings), ErrDuplicateOrder)
}
