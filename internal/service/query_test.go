package service

import (
	"testing"
	"time"

	"frontrow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList("1, 2,3 ,")
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, ids)

	_, err = parseIDList("")
	assert.ErrorIs(t, err, models.ErrInvalid)
	_, err = parseIDList("4, -1")
	assert.ErrorIs(t, err, models.ErrInvalid)
	_, err = parseIDList("0")
	assert.ErrorIs(t, err, models.ErrInvalid)
}

func TestParseDateRange(t *testing.T) {
	from, to, err := parseDateRange("01.02.2024 x 15.02.2024", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC), to)

	from, to, err = parseDateRange("29.02.2024x29.02.2024", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, to.Sub(from))

	for _, bad := range []string{"", "01.02.2024", "2024-02-01 x 2024-02-02", "31.02.2024 x 01.03.2024"} {
		_, _, err := parseDateRange(bad, time.UTC)
		assert.ErrorIs(t, err, models.ErrInvalid, bad)
	}
}
