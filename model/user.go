package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/common/helper"
	"gorm.io/gorm"
)

type User struct {
	Id           int    `json:"id"`
	Email        string `json:"email" gorm:"uniqueIndex" validate:"max=50"`
	Password     string `json:"-" gorm:"not null;"`
	Status       int    `json:"status" gorm:"type:int;default:1"`
	Role         int    `json:"role" gorm:"type:int;default:1"`
	Credits      int    `json:"credits" gorm:"default:0"`
	HeldCredits  int    `json:"held_credits" gorm:"default:0"`
	Language     string `json:"language" gorm:"default:'en'"`
	Theme        string `json:"theme" gorm:"default:'dark'"`
	CreatedTime  int64  `json:"created_time" gorm:"bigint"`
	AccessedTime int64  `json:"accessed_time" gorm:"bigint"`
}

// Balance is the authoritative credit triple. AvailableCredits is always
// derived as Credits - HeldCredits; it is never stored separately so the
// invariant cannot drift.
type Balance struct {
	Credits          int `json:"credits"`
	HeldCredits      int `json:"held_credits"`
	AvailableCredits int `json:"available_credits"`
}

// InsufficientCreditsError carries the numbers the client surfaces verbatim.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func GetUserById(id int) (*User, error) {
	if id == 0 {
		return nil, errors.New("id is empty!")
	}
	user := User{Id: id}
	err := DB.First(&user, "id = ?", id).Error
	return &user, err
}

func GetUserByEmail(email string) (*User, error) {
	if email == "" {
		return nil, errors.New("email is empty!")
	}
	user := User{}
	err := DB.First(&user, "email = ?", strings.ToLower(email)).Error
	return &user, err
}

func (user *User) Insert() error {
	var err error
	if user.Password != "" {
		user.Password, err = common.Password2Hash(user.Password)
		if err != nil {
			return err
		}
	}
	user.Email = strings.ToLower(user.Email)
	user.Credits = config.CreditsForNewUser
	user.CreatedTime = helper.GetTimestamp()
	user.AccessedTime = helper.GetTimestamp()
	return DB.Create(user).Error
}

func (user *User) Update() error {
	return DB.Model(user).Select("language", "theme", "accessed_time").Updates(user).Error
}

// ValidateAndFill checks the password against the stored hash and loads the
// full record on success.
func (user *User) ValidateAndFill() (err error) {
	password := user.Password
	if user.Email == "" || password == "" {
		return errors.New("email or password is empty")
	}
	err = DB.Where("email = ?", strings.ToLower(user.Email)).First(user).Error
	if err != nil {
		return errors.New("invalid email or password")
	}
	if !common.ValidatePasswordAndHash(password, user.Password) {
		return errors.New("invalid email or password")
	}
	if user.Status != common.UserStatusEnabled {
		return errors.New("user has been banned")
	}
	return nil
}

func IsUserEnabled(userId int) (bool, error) {
	if userId == 0 {
		return false, errors.New("user id is empty")
	}
	var user User
	err := DB.Where("id = ?", userId).Select("status").Find(&user).Error
	if err != nil {
		return false, err
	}
	return user.Status == common.UserStatusEnabled, nil
}

// GetUserBalance reads the credit triple straight from the database. This is
// the source of truth; the Redis mirror in cache.go is display-only.
func GetUserBalance(id int) (*Balance, error) {
	var user User
	err := DB.Where("id = ?", id).Select("credits", "held_credits").First(&user).Error
	if err != nil {
		return nil, err
	}
	available := user.Credits - user.HeldCredits
	if available < 0 {
		available = 0
	}
	return &Balance{
		Credits:          user.Credits,
		HeldCredits:      user.HeldCredits,
		AvailableCredits: available,
	}, nil
}

// HoldUserCredits places a provisional reservation of amount credits. The
// availability check and the increment happen in one guarded UPDATE so
// concurrent submissions can never hold past the available balance.
func HoldUserCredits(id int, amount int) error {
	if amount <= 0 {
		return errors.New("hold amount must be positive")
	}
	result := DB.Model(&User{}).
		Where("id = ? AND credits - held_credits >= ?", id, amount).
		Updates(map[string]interface{}{
			"held_credits":  gorm.Expr("held_credits + ?", amount),
			"accessed_time": helper.GetTimestamp(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		balance, err := GetUserBalance(id)
		if err != nil {
			return err
		}
		return &InsufficientCreditsError{Required: amount, Available: balance.AvailableCredits}
	}
	CacheInvalidateUserBalance(id)
	return nil
}

// ConfirmUserCredits converts a hold into a permanent deduction. Both columns
// move in the same statement, guarded by the hold still being outstanding.
func ConfirmUserCredits(id int, amount int) error {
	if err := confirmUserCredits(DB, id, amount); err != nil {
		return err
	}
	CacheInvalidateUserBalance(id)
	return nil
}

func confirmUserCredits(db *gorm.DB, id int, amount int) error {
	if amount <= 0 {
		return errors.New("confirm amount must be positive")
	}
	result := db.Model(&User{}).
		Where("id = ? AND held_credits >= ? AND credits >= ?", id, amount, amount).
		Updates(map[string]interface{}{
			"credits":       gorm.Expr("credits - ?", amount),
			"held_credits":  gorm.Expr("held_credits - ?", amount),
			"accessed_time": helper.GetTimestamp(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("no matching hold to confirm")
	}
	return nil
}

// ReleaseUserCredits returns a hold to the available balance. A release that
// exceeds the outstanding hold clamps at zero instead of going negative.
func ReleaseUserCredits(id int, amount int) error {
	if err := releaseUserCredits(DB, id, amount); err != nil {
		return err
	}
	CacheInvalidateUserBalance(id)
	return nil
}

func releaseUserCredits(db *gorm.DB, id int, amount int) error {
	if amount <= 0 {
		return errors.New("release amount must be positive")
	}
	result := db.Model(&User{}).
		Where("id = ? AND held_credits >= ?", id, amount).
		Updates(map[string]interface{}{
			"held_credits":  gorm.Expr("held_credits - ?", amount),
			"accessed_time": helper.GetTimestamp(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		err := db.Model(&User{}).Where("id = ?", id).Update("held_credits", 0).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateUserStatus enables or disables an account. Disabled users fail auth
// on their next request; outstanding jobs still settle normally.
func UpdateUserStatus(id int, status int) error {
	if status != common.UserStatusEnabled && status != common.UserStatusDisabled {
		return errors.New("invalid user status")
	}
	result := DB.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        status,
		"accessed_time": helper.GetTimestamp(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}
	return nil
}

// IncreaseUserCredits adds purchased or granted credits to the confirmed
// balance. Never used for job settlement, only top-ups and plan grants.
func IncreaseUserCredits(id int, amount int) error {
	if amount <= 0 {
		return errors.New("credit amount must be positive")
	}
	err := DB.Model(&User{}).Where("id = ?", id).Updates(
		map[string]interface{}{
			"credits":       gorm.Expr("credits + ?", amount),
			"accessed_time": helper.GetTimestamp(),
		},
	).Error
	if err != nil {
		return err
	}
	CacheInvalidateUserBalance(id)
	return nil
}
