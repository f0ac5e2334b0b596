package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/detective-api/internal/domain/entity"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, CheckTransition(entity.CaseStatusRegistered, entity.CaseStatusFabricated))
	assert.NoError(t, CheckTransition(entity.CaseStatusGuessed, entity.CaseStatusResultReady))
	assert.NoError(t, CheckTransition(entity.CaseStatusFabricated, entity.CaseStatusExpired))

	err := CheckTransition(entity.CaseStatusRegistered, entity.CaseStatusResultReady)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Contains(t, err.Error(), "registered -> result-ready")

	assert.ErrorIs(t, CheckTransition(entity.CaseStatusAssigned, entity.CaseStatusAccepted), apperrors.ErrInvalidState)
	assert.ErrorIs(t, CheckTransition(entity.CaseStatusResultReady, entity.CaseStatusExpired), apperrors.ErrInvalidState)
}
