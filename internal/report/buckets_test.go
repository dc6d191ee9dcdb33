package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMonthBuckets_WindowEndsAtReferenceMonth(t *testing.T) {
	t.Parallel()

	refs := []time.Time{
		time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2000, time.February, 29, 12, 0, 0, 0, time.UTC),
	}

	for _, ref := range refs {
		for _, size := range []int{1, 2, 12, 13, 25} {
			buckets, err := BuildMonthBuckets(ref, size)
			require.NoError(t, err)
			require.Len(t, buckets, size)

			assert.Equal(t, KeyOf(ref), buckets[len(buckets)-1].Key, "ref=%s size=%d", ref, size)
			for i := 1; i < len(buckets); i++ {
				assert.True(t, buckets[i-1].Key.Before(buckets[i].Key), "keys must increase: %v then %v", buckets[i-1].Key, buckets[i].Key)
				assert.Equal(t, buckets[i-1].Key.AddMonths(1), buckets[i].Key)
			}
			for _, b := range buckets {
				assert.Zero(t, b.Count)
				assert.True(t, b.Total.IsZero())
			}
		}
	}
}

func TestBuildMonthBuckets_YearRollover(t *testing.T) {
	t.Parallel()

	buckets, err := BuildMonthBuckets(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), 12)
	require.NoError(t, err)

	assert.Equal(t, MonthKey{Year: 2024, Month: time.April}, buckets[0].Key)
	assert.Equal(t, MonthKey{Year: 2024, Month: time.December}, buckets[8].Key)
	assert.Equal(t, MonthKey{Year: 2025, Month: time.January}, buckets[9].Key)
	assert.Equal(t, MonthKey{Year: 2025, Month: time.March}, buckets[11].Key)
}

func TestBuildMonthBuckets_RejectsNonPositiveWindow(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1, -12} {
		_, err := BuildMonthBuckets(time.Now(), size)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	}
}

func TestBuildMonthBuckets_Labels(t *testing.T) {
	t.Parallel()

	buckets, err := BuildMonthBuckets(time.Date(2025, time.August, 3, 0, 0, 0, 0, time.UTC), 2)
	require.NoError(t, err)
	assert.Equal(t, "Jul 2025", buckets[0].Label)
	assert.Equal(t, "Aug 2025", buckets[1].Label)

	custom, err := BuildMonthBucketsWithLabeler(time.Date(2025, time.August, 3, 0, 0, 0, 0, time.UTC), 1, func(k MonthKey) string {
		return k.String()
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-08", custom[0].Label)
}

func TestBuildMonthBuckets_UsesReferenceLocation(t *testing.T) {
	t.Parallel()

	// 2025-04-01 02:00 in UTC+3 is still March in UTC.
	loc := time.FixedZone("UTC+3", 3*60*60)
	ref := time.Date(2025, time.April, 1, 2, 0, 0, 0, loc)

	local, err := BuildMonthBuckets(ref, 1)
	require.NoError(t, err)
	utc, err := BuildMonthBuckets(ref.UTC(), 1)
	require.NoError(t, err)

	assert.Equal(t, time.April, local[0].Key.Month)
	assert.Equal(t, time.March, utc[0].Key.Month)
}

func TestMonthKey_ParseAndString(t *testing.T) {
	t.Parallel()

	k, err := ParseMonthKey("2025-03")
	require.NoError(t, err)
	assert.Equal(t, MonthKey{Year: 2025, Month: time.March}, k)
	assert.Equal(t, "2025-03", k.String())

	for _, bad := range []string{"", "2025", "2025-13", "03-2025", "2025/03"} {
		_, err := ParseMonthKey(bad)
		assert.ErrorIs(t, err, ErrInvalidMonthKey, "input %q", bad)
	}
}

func TestMonthKey_AddMonths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   MonthKey
		n    int
		want MonthKey
	}{
		{"same year", MonthKey{2025, time.March}, 2, MonthKey{2025, time.May}},
		{"forward over year", MonthKey{2025, time.November}, 3, MonthKey{2026, time.February}},
		{"back over year", MonthKey{2025, time.March}, -11, MonthKey{2024, time.April}},
		{"back to december", MonthKey{2025, time.January}, -1, MonthKey{2024, time.December}},
		{"multiple years", MonthKey{2025, time.June}, -30, MonthKey{2022, time.December}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.AddMonths(tt.n))
		})
	}
}

func TestPeriods_NewestFirst(t *testing.T) {
	t.Parallel()

	buckets, err := BuildMonthBuckets(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 3)
	require.NoError(t, err)

	periods := Periods(buckets)
	require.Len(t, periods, 3)
	assert.Equal(t, "2025-03", periods[0].Key.String())
	assert.Equal(t, "Mar 2025", periods[0].Label)
	assert.Equal(t, "2025-01", periods[2].Key.String())

	current, compare := DefaultSelections(buckets)
	assert.Equal(t, "2025-03", current.Key.String())
	assert.Equal(t, "2025-02", compare.Key.String())
}

func TestDefaultSelections_SingleBucket(t *testing.T) {
	t.Parallel()

	buckets, err := BuildMonthBuckets(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, err)

	current, compare := DefaultSelections(buckets)
	assert.Equal(t, "2025-01", current.Key.String())
	assert.Equal(t, "2024-12", compare.Key.String())
	assert.Equal(t, "Dec 2024", compare.Label)

	empty, _ := DefaultSelections(nil)
	assert.True(t, empty.Key.IsZero())
}
