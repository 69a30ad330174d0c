// Package businessflow contains the core business logic and use cases for campaign tracking workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/app/services"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/repository"
	"github.com/trackfluence/trackfluence/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthFlow handles user registration, authentication and logout
type AuthFlow interface {
	Register(ctx context.Context, request *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error)
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	Logout(ctx context.Context, userID uint, token string, metadata *ClientMetadata) (*dto.LogoutResponse, error)
}

// AuthFlowImpl implements the authentication business flow
type AuthFlowImpl struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.UserSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	bcryptCost   int
	db           *gorm.DB
}

// NewAuthFlow creates a new authentication flow instance
func NewAuthFlow(
	userRepo repository.UserRepository,
	sessionRepo repository.UserSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	bcryptCost int,
	db *gorm.DB,
) AuthFlow {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthFlowImpl{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		bcryptCost:   bcryptCost,
		db:           db,
	}
}

// Register creates a new user with a validated role and hashed password
func (af *AuthFlowImpl) Register(ctx context.Context, request *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error) {
	role := models.Role(strings.TrimSpace(request.Role))
	if !role.Valid() {
		return nil, NewBusinessError("REGISTER_INVALID_ROLE", "Invalid role selected", ErrInvalidRole)
	}

	var user *models.User

	resp, err := af.withRegisterTransaction(ctx, func(ctx context.Context) (*dto.RegisterResponse, error) {
		email := strings.ToLower(strings.TrimSpace(request.Email))

		existing, err := af.userRepo.ByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrUserAlreadyExists
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), af.bcryptCost)
		if err != nil {
			return nil, err
		}

		user = &models.User{
			UUID:         uuid.New(),
			Name:         strings.TrimSpace(request.Name),
			Email:        email,
			PasswordHash: string(hashedPassword),
			Role:         role,
			IsActive:     utils.ToPtr(true),
			CreatedAt:    utils.UTCNow(),
		}

		if err := af.userRepo.Save(ctx, user); err != nil {
			return nil, err
		}

		return &dto.RegisterResponse{
			Message: "User registered successfully",
			User:    ToAuthUserDTO(*user),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Registration failed: %s", err.Error())
		_ = af.logAuthEvent(ctx, user, models.AuditActionRegisterFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("REGISTER_FAILED", "Registration failed", err)
	}

	msg := fmt.Sprintf("User registered successfully: %d", resp.User.ID)
	_ = af.logAuthEvent(ctx, user, models.AuditActionRegisterSuccess, msg, true, nil, metadata)

	return resp, nil
}

// Login authenticates a user with email and password
func (af *AuthFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	var user *models.User

	resp, err := af.withLoginTransaction(ctx, func(ctx context.Context) (*dto.LoginResponse, error) {
		email := strings.ToLower(strings.TrimSpace(request.Email))

		var err error
		user, err = af.userRepo.ByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}

		// Check if account is active
		if !utils.IsTrue(user.IsActive) {
			return nil, ErrAccountInactive
		}

		// Verify password
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
			return nil, ErrIncorrectPassword
		}

		// Create new session
		session, err := af.createSession(ctx, user, metadata)
		if err != nil {
			return nil, err
		}

		if err := af.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
			return nil, err
		}

		return &dto.LoginResponse{
			Message: "Login successful",
			Token:   session.SessionToken,
			Role:    user.Role.String(),
			Name:    user.Name,
			User:    ToAuthUserDTO(*user),
			Session: ToSessionInfoDTO(*session),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = af.logAuthEvent(ctx, user, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("User logged in successfully: %d", resp.User.ID)
	_ = af.logAuthEvent(ctx, user, models.AuditActionLoginSuccess, msg, true, nil, metadata)

	return resp, nil
}

// Logout revokes the caller's token and deactivates the matching session
func (af *AuthFlowImpl) Logout(ctx context.Context, userID uint, token string, metadata *ClientMetadata) (*dto.LogoutResponse, error) {
	user, err := af.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", ErrUserNotFound)
	}

	if err := af.tokenService.RevokeToken(token); err != nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}

	session, err := af.sessionRepo.BySessionToken(ctx, token)
	if err != nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}
	if session != nil {
		if err := af.sessionRepo.ExpireSession(ctx, session.ID); err != nil {
			return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
		}
	}

	msg := fmt.Sprintf("User logged out: %d", userID)
	_ = af.logAuthEvent(ctx, user, models.AuditActionLogout, msg, true, nil, metadata)

	return &dto.LogoutResponse{Message: "Logged out successfully"}, nil
}

// Private helper methods

func (af *AuthFlowImpl) createSession(ctx context.Context, user *models.User, metadata *ClientMetadata) (*models.UserSession, error) {
	// Generate tokens
	accessToken, refreshToken, err := af.tokenService.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	// Calculate expiry time using constant
	expiresAt := utils.UTCNowAdd(utils.SessionTimeout)

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	// Create session record
	session := &models.UserSession{
		UserID:       user.ID,
		SessionToken: accessToken,
		RefreshToken: &refreshToken,
		ExpiresAt:    expiresAt,
		IsActive:     utils.ToPtr(true),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
	}

	err = af.sessionRepo.Save(ctx, session)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (af *AuthFlowImpl) logAuthEvent(ctx context.Context, user *models.User, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var userID *uint
	if user != nil {
		userID = &user.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return af.auditRepo.Save(ctx, audit)
}

func (af *AuthFlowImpl) withRegisterTransaction(ctx context.Context, fn func(context.Context) (*dto.RegisterResponse, error)) (*dto.RegisterResponse, error) {
	var result *dto.RegisterResponse
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (af *AuthFlowImpl) withLoginTransaction(ctx context.Context, fn func(context.Context) (*dto.LoginResponse, error)) (*dto.LoginResponse, error) {
	var result *dto.LoginResponse
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
