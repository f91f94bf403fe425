package idx_test

import (
	"bytes"
	"sort"
	"testing"
	"time"

	"github.com/aussiebroadwan/quill/pkg/idx"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNewIsValidULID(t *testing.T) {
	id := idx.New()
	u, err := ulid.ParseStrict(id)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), ulid.Time(u.Time()), time.Second)
}

func TestSortedWithinMillisecond(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()

	ids := make([]string, 0, 50)
	for range 50 {
		ids = append(ids, idx.NewAt(at))
	}
	require.True(t, sort.StringsAreSorted(ids))

	u, err := ulid.ParseStrict(ids[0])
	require.NoError(t, err)
	require.Equal(t, at, ulid.Time(u.Time()).UTC())
}

func TestGeneratorIsDeterministicForFixedEntropy(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	seed := bytes.Repeat([]byte{7}, 64)

	a := idx.NewGenerator(bytes.NewReader(seed)).At(at)
	b := idx.NewGenerator(bytes.NewReader(seed)).At(at)
	require.Equal(t, a, b)
}
