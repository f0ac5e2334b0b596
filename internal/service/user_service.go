package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/domain/repository"
	"github.com/yourusername/detective-api/internal/handler/dto"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

const (
	minNicknameLength = 2
	maxNicknameLength = 30
)

// TokenIssuer выпускает токен доступа для пользователя
type TokenIssuer interface {
	GenerateToken(user *entity.User) (string, error)
}

// UserService предоставляет методы для работы с пользователями
type UserService struct {
	userRepo     repository.UserRepository
	scoreLogRepo repository.ScoreLogRepository
	tokens       TokenIssuer
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, scoreLogRepo repository.ScoreLogRepository, tokens TokenIssuer) *UserService {
	return &UserService{
		userRepo:     userRepo,
		scoreLogRepo: scoreLogRepo,
		tokens:       tokens,
	}
}

// Login находит пользователя по никнейму или создает нового с запрошенной ролью.
// Роль существующего пользователя не меняется: при расхождении выставляется RoleMismatch.
func (s *UserService) Login(ctx context.Context, nickname, requestedRole string) (*dto.LoginResponse, error) {
	nickname = strings.TrimSpace(nickname)
	if n := utf8.RuneCountInString(nickname); n < minNicknameLength || n > maxNicknameLength {
		return nil, ErrNicknameLength
	}

	var role entity.Role
	if strings.TrimSpace(requestedRole) != "" {
		parsed, ok := entity.ParseRole(requestedRole)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, requestedRole)
		}
		role = parsed
	}

	user, created, err := s.findOrCreate(ctx, nickname, role)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		log.Printf("[UserService] Ошибка при выпуске токена для пользователя #%d: %v", user.ID, err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	resp := &dto.LoginResponse{
		UserResponse: toUserResponse(user),
		Token:        token,
		Created:      created,
	}
	if role != "" && role != user.Role {
		resp.RoleMismatch = true
		resp.RequestedRole = string(role)
		log.Printf("[UserService] Никнейм %q закреплен за ролью %s, запрошена %s", nickname, user.Role, role)
	}
	return resp, nil
}

// findOrCreate сводит одновременные первые входы с одним никнеймом к одной записи
func (s *UserService) findOrCreate(ctx context.Context, nickname string, role entity.Role) (*entity.User, bool, error) {
	user, err := s.userRepo.GetByNickname(ctx, nickname)
	if err == nil {
		return user, false, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup nickname: %w", err)
	}
	if role == "" {
		return nil, false, ErrRoleRequired
	}

	user = &entity.User{Nickname: nickname, Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !apperrors.Is(err, apperrors.ErrConflict) {
			return nil, false, fmt.Errorf("create user: %w", err)
		}
		existing, getErr := s.userRepo.GetByNickname(ctx, nickname)
		if getErr != nil {
			return nil, false, fmt.Errorf("re-read user after conflict: %w", getErr)
		}
		return existing, false, nil
	}
	log.Printf("[UserService] Новый пользователь #%d %q (%s)", user.ID, user.Nickname, user.Role)
	return user, true, nil
}

// GetMe возвращает пользователя по ID из токена
func (s *UserService) GetMe(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ListDetectives возвращает детективов для назначения на дело
func (s *UserService) ListDetectives(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.userRepo.ListByRole(ctx, entity.RoleDetective)
	if err != nil {
		return nil, fmt.Errorf("list detectives: %w", err)
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	return out, nil
}

// ScoreLogs возвращает пагинированный журнал очков пользователя
func (s *UserService) ScoreLogs(ctx context.Context, userID uint, page, pageSize int) (*dto.PaginatedScoreLogResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	logs, total, err := s.scoreLogRepo.ListByUser(ctx, userID, pageSize, offset)
	if err != nil {
		log.Printf("[UserService] Ошибка при получении журнала очков пользователя #%d: %v", userID, err)
		return nil, err
	}

	items := make([]dto.ScoreLogDTO, len(logs))
	for i, l := range logs {
		items[i] = dto.ScoreLogDTO{
			LogID:       l.ID,
			ActiveID:    l.ActiveID,
			ScoreChange: l.Delta,
			Reason:      l.Reason,
			LogTime:     l.CreatedAt,
		}
	}
	return &dto.PaginatedScoreLogResponse{
		Logs:    items,
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	}, nil
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		UserID:   u.ID,
		Nickname: u.Nickname,
		Role:     u.Role.Label(),
		RoleCode: string(u.Role),
		Score:    u.Score,
	}
}
