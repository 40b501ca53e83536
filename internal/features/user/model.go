package user

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/pkg/types"
)

// User represents a system account.
type User struct {
	types.BaseModel

	FullName       string     `gorm:"type:varchar(150);not null;column:full_name" json:"fullName"`
	Email          string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password       string     `gorm:"type:varchar(255);not null" json:"-"`
	Role           types.Role `gorm:"type:varchar(20);not null;default:'STUDENT';index" json:"role"`
	Bio            *string    `gorm:"type:text" json:"bio,omitempty"`
	ProfilePicture *string    `gorm:"type:text;column:profile_picture" json:"profilePicture,omitempty"`
	RefreshToken   *string    `gorm:"type:text;column:refresh_token" json:"-"`
	Active         bool       `gorm:"type:boolean;not null;default:true;column:is_active" json:"isActive"`
}

// TableName overrides the default table name.
func (User) TableName() string { return "users" }

// CreateInput carries data for creating a new account.
type CreateInput struct {
	FullName string
	Email    string
	Password string
	Role     types.Role
}

// UpdateInput captures mutable profile fields.
type UpdateInput struct {
	FullName               *string
	Bio                    *string
	BioProvided            bool
	ProfilePicture         *string
	ProfilePictureProvided bool
	Password               *string
	Active                 *bool
}

// Get retrieves a user by ID.
func Get(db *gorm.DB, id uuid.UUID) (User, error) {
	var usr User
	if err := db.First(&usr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usr, ErrUserNotFound
		}
		return usr, err
	}
	return usr, nil
}

// GetByEmail retrieves a user by email.
func GetByEmail(db *gorm.DB, email string) (User, error) {
	var usr User
	if err := db.First(&usr, "LOWER(email) = ?", normalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usr, ErrUserNotFound
		}
		return usr, err
	}
	return usr, nil
}

// Create inserts a new user with hashed password.
func Create(db *gorm.DB, input CreateInput) (User, error) {
	if len(input.Password) < 8 {
		return User{}, ErrInvalidPassword
	}

	email := normalizeEmail(input.Email)
	var existing User
	if err := db.Select("id").First(&existing, "LOWER(email) = ?", email).Error; err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), 10)
	if err != nil {
		return User{}, err
	}

	usr := User{
		FullName: strings.TrimSpace(input.FullName),
		Email:    email,
		Password: string(hashedPassword),
		Role:     input.Role,
		Active:   true,
	}

	if err := db.Create(&usr).Error; err != nil {
		return usr, err
	}

	return usr, nil
}

// Update modifies an existing user's profile.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (User, error) {
	usr, err := Get(db, id)
	if err != nil {
		return usr, err
	}

	updates := map[string]interface{}{}

	if input.FullName != nil {
		trimmed := strings.TrimSpace(*input.FullName)
		if trimmed == "" {
			return usr, ErrNameRequired
		}
		updates["full_name"] = trimmed
	}

	if input.BioProvided {
		if input.Bio == nil {
			updates["bio"] = nil
		} else {
			updates["bio"] = strings.TrimSpace(*input.Bio)
		}
	}

	if input.ProfilePictureProvided {
		updates["profile_picture"] = input.ProfilePicture
	}

	if input.Password != nil {
		if len(*input.Password) < 8 {
			return usr, ErrInvalidPassword
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), 10)
		if err != nil {
			return usr, err
		}
		updates["password"] = string(hashedPassword)
	}

	if input.Active != nil {
		updates["is_active"] = *input.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return usr, err
		}
	}

	return Get(db, id)
}

// SetRefreshToken stores (or clears, with nil) the user's refresh token.
func SetRefreshToken(db *gorm.DB, id uuid.UUID, token *string) error {
	return db.Model(&User{}).Where("id = ?", id).Update("refresh_token", token).Error
}

// ComparePassword checks the provided password against the stored hash.
func (u *User) ComparePassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
