package postgres

import (
	"testing"

	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	dup := translateError(&pgconn.PgError{Code: uniqueViolation, Message: "duplicate key value"})
	require.ErrorIs(t, dup, repository.ErrDuplicate)

	other := translateError(&pgconn.PgError{Code: "57014"})
	require.NotErrorIs(t, other, repository.ErrDuplicate)
	require.ErrorIs(t, translateError(assert.AnError), assert.AnError)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}

func TestProductArgs_NullProductID(t *testing.T) {
	args, err := productArgs(models.Product{URL: "https://www.amazon.com/x"})

	require.NoError(t, err)
	require.Len(t, args, 19)
	assert.Nil(t, args[1])
	assert.Equal(t, "[]", args[16])
	assert.Equal(t, "0", args[7])
}
