package billing_test

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeSelectionSet_ReplaceKnownIDsDropsVanished(t *testing.T) {
	s := billing.NewChargeSelectionSet("1", "2", "3")

	_, err := s.Toggle("1")
	require.NoError(t, err)
	_, err = s.Toggle("2")
	require.NoError(t, err)

	dropped := s.ReplaceKnownIDs([]string{"2", "3", "4"})

	assert.Equal(t, []string{"2"}, s.SelectedIDs())
	assert.Equal(t, []string{"1"}, dropped)
	assert.False(t, s.IsSelected("1"))
	assert.True(t, s.IsKnown("4"))
}

func TestChargeSelectionSet_ToggleUnknown(t *testing.T) {
	s := billing.NewChargeSelectionSet("1")

	_, err := s.Toggle("99")
	assert.ErrorIs(t, err, apperrors.ErrUnknownCharge)
	assert.Equal(t, 0, s.Count())
}

func TestChargeSelectionSet_ToggleParity(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		s := billing.NewChargeSelectionSet(ids...)
		counts := map[string]int{}
		for i := 0; i < rng.Intn(40); i++ {
			id := ids[rng.Intn(len(ids))]
			selected, err := s.Toggle(id)
			require.NoError(t, err)
			counts[id]++
			assert.Equal(t, counts[id]%2 == 1, selected)
		}

		odd := 0
		for _, c := range counts {
			if c%2 == 1 {
				odd++
			}
		}
		assert.Equal(t, odd, s.Count(), "round %d", round)
	}
}

func TestChargeSelectionSet_SelectionStaysWithinKnownIDs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := billing.NewChargeSelectionSet()

	for round := 0; round < 30; round++ {
		known := make([]string, 0, 10)
		for i := 0; i < 10; i++ {
			if rng.Intn(2) == 0 {
				known = append(known, strconv.Itoa(i))
			}
		}
		s.ReplaceKnownIDs(known)
		for _, id := range known {
			if rng.Intn(2) == 0 {
				_, err := s.Toggle(id)
				require.NoError(t, err)
			}
		}

		next := make([]string, 0, 10)
		for i := 0; i < 10; i++ {
			if rng.Intn(2) == 0 {
				next = append(next, strconv.Itoa(i))
			}
		}
		s.ReplaceKnownIDs(next)
		assert.Subset(t, next, s.SelectedIDs())
	}
}

func TestChargeSelectionSet_SelectAllVisibleAndClear(t *testing.T) {
	s := billing.NewChargeSelectionSet("1", "2", "3", "4")
	_, err := s.Toggle("3")
	require.NoError(t, err)

	require.NoError(t, s.SelectAllVisible([]string{"1", "2", "3"}))
	assert.Equal(t, []string{"3", "1", "2"}, s.SelectedIDs())
	assert.Equal(t, 3, s.Count())

	err = s.SelectAllVisible([]string{"4", "5"})
	assert.ErrorIs(t, err, apperrors.ErrUnknownCharge)
	assert.False(t, s.IsSelected("4"), "a failed select-all must not change the selection")

	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.SelectedIDs())
	assert.True(t, s.IsKnown("1"))
}
