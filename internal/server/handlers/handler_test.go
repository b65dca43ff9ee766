package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("%w: bad", models.ErrInvalidInput):                          http.StatusUnprocessableEntity,
		repository.ErrNotFound:                                                 http.StatusNotFound,
		repository.Fail("insert", errors.New("locked")):                        http.StatusServiceUnavailable,
		fmt.Errorf("%w: rename: %w", models.ErrExportFailure, errors.New("x")): http.StatusInternalServerError,
		errors.New("surprise"):                                                 http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
