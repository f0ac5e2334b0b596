package service

import (
	"fmt"

	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// Ошибки сервисов. Каждая оборачивает общий sentinel из apperrors,
// поэтому хендлеры сопоставляют их с HTTP-статусом через errors.Is.
var (
	ErrNicknameLength      = fmt.Errorf("%w: nickname must be 2-30 characters", apperrors.ErrValidation)
	ErrUnknownRole         = fmt.Errorf("%w: unknown role", apperrors.ErrValidation)
	ErrRoleRequired        = fmt.Errorf("%w: nickname is not registered, role is required", apperrors.ErrNotFound)
	ErrWrongRole           = fmt.Errorf("%w: user role does not allow this action", apperrors.ErrForbidden)
	ErrNotParticipant      = fmt.Errorf("%w: user does not participate in the case", apperrors.ErrForbidden)
	ErrCaseAlreadyOpen     = fmt.Errorf("%w: client already has an open case for this template", apperrors.ErrConflict)
	ErrCulpritTaken        = fmt.Errorf("%w: culprit slot is already taken", apperrors.ErrConflict)
	ErrNotFakeCandidate    = fmt.Errorf("%w: evidence is not a fake candidate of the case", apperrors.ErrInvalidChoice)
	ErrNotSuspect          = fmt.Errorf("%w: guess is not a suspect of the case", apperrors.ErrInvalidChoice)
	ErrNotDetective        = fmt.Errorf("%w: assignee is not a detective", apperrors.ErrInvalidChoice)
	ErrResultNotReady      = fmt.Errorf("%w: case has no result yet", apperrors.ErrInvalidState)
	ErrUnsupportedExport   = fmt.Errorf("%w: unsupported export format", apperrors.ErrValidation)
	ErrReasoningTooLong    = fmt.Errorf("%w: reasoning is too long", apperrors.ErrValidation)
	ErrEmptyGuess          = fmt.Errorf("%w: culprit guess is required", apperrors.ErrValidation)
	ErrEmptyFakeEvidence   = fmt.Errorf("%w: fake evidence is required", apperrors.ErrValidation)
	ErrTemplateNotPlayable = fmt.Errorf("%w: case template is incomplete", apperrors.ErrValidation)
)
