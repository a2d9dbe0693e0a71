package language

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newHindiEnglishTracker(t *testing.T) *Tracker {
	t.Helper()

	tracker, err := NewTracker(MustNewSet("hi", "en"), "en")
	require.NoError(t, err)
	return tracker
}

func TestNewTrackerStartsAtDefault(t *testing.T) {
	tracker := newHindiEnglishTracker(t)
	require.Equal(t, "en", tracker.Current())
}

func TestNewTrackerRejectsUnsupportedDefault(t *testing.T) {
	_, err := NewTracker(MustNewSet("hi", "en"), "fr")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not one of")
}

func TestNewTrackerNormalizesDefault(t *testing.T) {
	tracker, err := NewTracker(MustNewSet("HI", "EN"), " EN ")
	require.NoError(t, err)
	require.Equal(t, "en", tracker.Current())
}

func TestNewTrackerRejectsEmptySet(t *testing.T) {
	_, err := NewTracker(Set{}, "en")
	require.ErrorIs(t, err, ErrEmptySet)
}

func TestUpdateWithSupportedCodeSetsCurrent(t *testing.T) {
	for _, code := range []string{"hi", "en"} {
		t.Run(code, func(t *testing.T) {
			tracker := newHindiEnglishTracker(t)
			tracker.Update(code)
			require.Equal(t, code, tracker.Current())
		})
	}
}

func TestUpdateIgnoresUnsupportedAndAbsentCodes(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "absent", code: ""},
		{name: "unsupported", code: "fr"},
		{name: "region tag", code: "hi-IN"},
		{name: "different case", code: "HI"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracker := newHindiEnglishTracker(t)
			tracker.Update("hi")

			changed := tracker.Update(tc.code)
			require.False(t, changed)
			require.Equal(t, "hi", tracker.Current())
		})
	}
}

func TestUpdateReportsChangeOnlyOnce(t *testing.T) {
	tracker := newHindiEnglishTracker(t)

	require.True(t, tracker.Update("hi"))
	require.False(t, tracker.Update("hi"))
	require.False(t, tracker.Update("hi"))
	require.Equal(t, "hi", tracker.Current())
}

func TestUpdateSequenceKeepsLastSupportedCode(t *testing.T) {
	tracker := newHindiEnglishTracker(t)

	tracker.Update("hi")
	tracker.Update("")
	tracker.Update("fr")

	require.Equal(t, "hi", tracker.Current())
}

func TestConcurrentUpdatesLeaveMemberValue(t *testing.T) {
	tracker := newHindiEnglishTracker(t)
	codes := []string{"hi", "en"}

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.Update(codes[i%len(codes)])
		}(i)
	}
	wg.Wait()

	require.Contains(t, codes, tracker.Current())
}

func TestNewSetNormalizesAndDeduplicates(t *testing.T) {
	set, err := NewSet(" HI ", "en", "hi")
	require.NoError(t, err)
	require.Equal(t, []string{"hi", "en"}, set.Codes())
	require.Equal(t, "hi,en", set.String())
}

func TestNewSetRejectsEmptyInput(t *testing.T) {
	_, err := NewSet()
	require.ErrorIs(t, err, ErrEmptySet)

	_, err = NewSet("en", " ")
	require.Error(t, err)
}

func TestSetCodesReturnsCopy(t *testing.T) {
	set := MustNewSet("hi", "en")
	codes := set.Codes()
	codes[0] = "fr"

	require.False(t, set.Contains("fr"), fmt.Sprintf("set mutated through Codes(): %v", set.Codes()))
}
