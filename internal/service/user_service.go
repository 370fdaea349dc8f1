package service

import (
	"errors"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	Signup(email, password, displayName, timezone string) (*models.User, error)
	Login(email, password string) (string, error)
	GetUser(id string) (*models.User, error)
}

type userService struct {
	userRepo  repository.UserRepository
	prefsRepo repository.PreferencesRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserService(userRepo repository.UserRepository, prefsRepo repository.PreferencesRepository, jwtSecret string) UserService {
	return &userService{
		userRepo:  userRepo,
		prefsRepo: prefsRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  24 * time.Hour,
	}
}

// Signup creates the account and seeds the user's notification
// preferences with the defaults.
func (s *userService) Signup(email, password, displayName, timezone string) (*models.User, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if timezone == "" {
		timezone = "Asia/Tokyo"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, errors.New("invalid timezone")
	}

	user := &models.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Timezone:     timezone,
		IsActive:     true,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, err
	}

	prefs := models.DefaultPreferences(user.ID.Hex())
	prefs.QuietHours.Timezone = timezone
	if err := s.prefsRepo.SavePreferences(prefs); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Login(email, password string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive {
		return "", errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	claims := jwt.MapClaims{
		"user_id": user.ID.Hex(),
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *userService) GetUser(id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid user ID")
	}
	return s.userRepo.GetUserByID(objID)
}
