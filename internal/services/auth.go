package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cleancity/complaint-server/internal/codec"
	"github.com/cleancity/complaint-server/internal/database"
	"github.com/cleancity/complaint-server/internal/errs"
	"github.com/cleancity/complaint-server/internal/models"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// AuthService verifies credentials and registers accounts. Every role goes
// through the same credential path: bcrypt-hashed passwords in the users
// table, one profile row in the matching role table.
type AuthService struct {
	db         *pgxpool.Pool
	logger     *zap.SugaredLogger
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(db *pgxpool.Pool, logger *zap.SugaredLogger, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{db: db, logger: logger, bcryptCost: bcryptCost}
}

// Authenticate verifies email and password and returns the composed
// identity. Unknown email and wrong password both return (nil, nil): the
// caller cannot tell which one failed. Errors are reserved for storage
// failures.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	var userID int
	var passwordHash, userType string
	err := s.db.QueryRow(ctx,
		`SELECT id, password_hash, user_type FROM users WHERE email = $1`,
		email,
	).Scan(&userID, &passwordHash, &userType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return nil, nil
	}

	profileID, fullName, err := s.loadProfile(ctx, userType, userID)
	if err != nil {
		return nil, err
	}

	return &models.Identity{
		UserID:    userID,
		Email:     email,
		Role:      userType,
		ProfileID: profileID,
		FullName:  fullName,
	}, nil
}

func (s *AuthService) loadProfile(ctx context.Context, userType string, userID int) (int, string, error) {
	var table string
	switch userType {
	case models.RoleCitizen:
		table = "citizens"
	case models.RoleAdmin:
		table = "admins"
	case models.RoleWorker:
		table = "workers"
	default:
		return 0, "", fmt.Errorf("unknown user type %q", userType)
	}

	var profileID int
	var fullName string
	err := s.db.QueryRow(ctx,
		`SELECT id, full_name FROM `+table+` WHERE user_id = $1`,
		userID,
	).Scan(&profileID, &fullName)
	if err != nil {
		return 0, "", fmt.Errorf("load %s profile: %w", userType, err)
	}
	return profileID, fullName, nil
}

// RegisterCitizen creates a citizen account and profile in one transaction.
func (s *AuthService) RegisterCitizen(ctx context.Context, req *models.RegisterRequest) (*models.Identity, error) {
	if err := validateCredentials(req.Email, req.Password, req.FullName); err != nil {
		return nil, err
	}

	profileData, err := encodeOptional(req.Profile)
	if err != nil {
		return nil, err
	}

	identity := &models.Identity{Email: req.Email, Role: models.RoleCitizen, FullName: req.FullName}
	err = database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		userID, err := s.insertUser(ctx, tx, req.Email, req.Password, models.RoleCitizen)
		if err != nil {
			return err
		}
		identity.UserID = userID

		err = tx.QueryRow(ctx, `
			INSERT INTO citizens (user_id, full_name, phone, address, profile_data)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, userID, req.FullName, req.Phone, req.Address, profileData).Scan(&identity.ProfileID)
		if err != nil {
			return fmt.Errorf("insert citizen: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Citizen registered", "user_id", identity.UserID, "citizen_id", identity.ProfileID)
	return identity, nil
}

// RegisterWorker creates a worker account and profile in one transaction.
// Invoked by admins when onboarding sanitation staff.
func (s *AuthService) RegisterWorker(ctx context.Context, req *models.RegisterWorkerRequest) (*models.Identity, error) {
	if err := validateCredentials(req.Email, req.Password, req.FullName); err != nil {
		return nil, err
	}

	profileData, err := encodeOptional(req.Profile)
	if err != nil {
		return nil, err
	}

	identity := &models.Identity{Email: req.Email, Role: models.RoleWorker, FullName: req.FullName}
	err = database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		userID, err := s.insertUser(ctx, tx, req.Email, req.Password, models.RoleWorker)
		if err != nil {
			return err
		}
		identity.UserID = userID

		err = tx.QueryRow(ctx, `
			INSERT INTO workers (user_id, full_name, phone, vehicle_number, area_assigned, profile_data)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, userID, req.FullName, req.Phone, req.VehicleNumber, req.AreaAssigned, profileData).Scan(&identity.ProfileID)
		if err != nil {
			return fmt.Errorf("insert worker: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Worker registered", "user_id", identity.UserID, "worker_id", identity.ProfileID)
	return identity, nil
}

// RegisterAdmin creates an admin account and profile in one transaction.
// Permissions are stored compressed like every other opaque payload.
func (s *AuthService) RegisterAdmin(ctx context.Context, req *models.RegisterAdminRequest) (*models.Identity, error) {
	if err := validateCredentials(req.Email, req.Password, req.FullName); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = "admin"
	}

	var permData []byte
	if req.Permissions != nil {
		var err error
		if permData, err = codec.Encode(req.Permissions); err != nil {
			return nil, err
		}
	}

	identity := &models.Identity{Email: req.Email, Role: models.RoleAdmin, FullName: req.FullName}
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		userID, err := s.insertUser(ctx, tx, req.Email, req.Password, models.RoleAdmin)
		if err != nil {
			return err
		}
		identity.UserID = userID

		err = tx.QueryRow(ctx, `
			INSERT INTO admins (user_id, full_name, phone, role, permissions)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, userID, req.FullName, req.Phone, role, permData).Scan(&identity.ProfileID)
		if err != nil {
			return fmt.Errorf("insert admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Admin registered", "user_id", identity.UserID, "admin_id", identity.ProfileID)
	return identity, nil
}

// EnsureAdmin seeds the first admin account from configuration. A fresh
// deployment has no admin, and admins mint every other admin and worker, so
// without a seed nobody could ever assign a complaint. No-op when the
// bootstrap credentials are unset or an admin already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, fullName string) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE user_type = $1)`,
		models.RoleAdmin,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check for existing admin: %w", err)
	}
	if exists {
		return nil
	}

	if fullName == "" {
		fullName = "Administrator"
	}
	_, err = s.RegisterAdmin(ctx, &models.RegisterAdminRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	})
	return err
}

func (s *AuthService) insertUser(ctx context.Context, tx pgx.Tx, email, password, userType string) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var userID int
	err = tx.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, user_type) VALUES ($1, $2, $3) RETURNING id`,
		email, string(hash), userType,
	).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%w: email already registered", errs.ErrConflict)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return userID, nil
}

func validateCredentials(email, password, fullName string) error {
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(fullName) == "" {
		return fmt.Errorf("%w: email, password and full_name are required", errs.ErrValidation)
	}
	return nil
}

func encodeOptional(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return codec.Encode(v)
}
