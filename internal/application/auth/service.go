package auth

import (
	"errors"

	"immoci-backend/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail      = errors.New("email inconnu")
	ErrIncorrectPassword = errors.New("mot de passe incorrect")
)

// UserFinder resolves credentials to a user.
type UserFinder interface {
	FindByEmailAndPassword(email, password string) (*domain.User, error)
}

// GormUserFinder is the database-backed UserFinder.
type GormUserFinder struct {
	DB *gorm.DB
}

func (f *GormUserFinder) FindByEmailAndPassword(email, password string) (*domain.User, error) {
	var user domain.User
	if err := f.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &user, nil
}

// HashPassword produces a bcrypt hash with the default cost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
