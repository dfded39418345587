package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reelforge/reelforge/common"
	"github.com/reelforge/reelforge/common/helper"
	"github.com/reelforge/reelforge/common/logger"
	"gorm.io/gorm"
)

// User holds account, role and subscription bookkeeping. Subscription fields
// are maintained by the Stripe webhook; render/token counters by the
// render-callback handler.
type User struct {
	Id          int    `json:"id"`
	Username    string `json:"username" gorm:"unique;index" validate:"max=12"`
	Password    string `json:"password" gorm:"not null;" validate:"min=8,max=20"`
	DisplayName string `json:"display_name" gorm:"index"`
	Role        int    `json:"role" gorm:"type:int;default:1"`   // admin, common
	Status      int    `json:"status" gorm:"type:int;default:1"` // enabled, disabled
	Email       string `json:"email" gorm:"index"`
	ClerkUserId string `json:"clerk_user_id" gorm:"index;default:''"`
	AccessToken string `json:"access_token" gorm:"type:char(32);column:access_token;uniqueIndex"`

	SubscriptionPlan      string `json:"subscription_plan" gorm:"default:'free'"`
	SubscriptionStatus    string `json:"subscription_status" gorm:"default:''"`
	SubscriptionPeriodEnd int64  `json:"subscription_period_end" gorm:"bigint;default:0"`
	StripeCustomerId      string `json:"stripe_customer_id" gorm:"index;default:''"`

	RendersUsed int64 `json:"renders_used" gorm:"bigint;default:0"`
	TokensUsed  int64 `json:"tokens_used" gorm:"bigint;default:0"`
	CreatedAt   int64 `json:"created_at" gorm:"bigint"`
}

func GetUserById(id int, selectAll bool) (*User, error) {
	if id == 0 {
		return nil, errors.New("id is empty")
	}
	user := User{Id: id}
	var err error
	if selectAll {
		err = DB.First(&user, "id = ?", id).Error
	} else {
		err = DB.Omit("password").First(&user, "id = ?", id).Error
	}
	return &user, err
}

func GetUserByClerkId(clerkUserId string) (*User, error) {
	if clerkUserId == "" {
		return nil, errors.New("clerk user id is empty")
	}
	var user User
	err := DB.Omit("password").First(&user, "clerk_user_id = ?", clerkUserId).Error
	return &user, err
}

func GetUserByStripeCustomerId(customerId string) (*User, error) {
	if customerId == "" {
		return nil, errors.New("stripe customer id is empty")
	}
	var user User
	err := DB.Omit("password").First(&user, "stripe_customer_id = ?", customerId).Error
	return &user, err
}

func GetUsernameById(id int) (username string) {
	DB.Model(&User{}).Where("id = ?", id).Select("username").Find(&username)
	return username
}

func IsAdmin(userId int) bool {
	if userId == 0 {
		return false
	}
	var user User
	err := DB.Where("id = ?", userId).Select("role").Find(&user).Error
	if err != nil {
		logger.SysError("no such user " + err.Error())
		return false
	}
	return user.Role >= common.RoleAdminUser
}

func (user *User) Insert() error {
	var err error
	if user.Password != "" {
		user.Password, err = common.Password2Hash(user.Password)
		if err != nil {
			return err
		}
	}
	user.AccessToken = helper.GetUUID()
	user.CreatedAt = helper.GetTimestamp()
	return DB.Create(user).Error
}

func (user *User) Update(updatePassword bool) error {
	var err error
	if updatePassword {
		user.Password, err = common.Password2Hash(user.Password)
		if err != nil {
			return err
		}
	}
	return DB.Model(user).Updates(user).Error
}

func (user *User) Delete() error {
	if user.Id == 0 {
		return errors.New("id is empty")
	}
	return DB.Delete(user).Error
}

// ValidateAndFill checks username/password and fills the full record.
func (user *User) ValidateAndFill() (err error) {
	password := user.Password
	if user.Username == "" || password == "" {
		return errors.New("username or password is empty")
	}
	err = DB.Where(User{Username: user.Username}).First(user).Error
	if err != nil {
		// allow login with email as well
		err := DB.Where(User{Email: user.Username}).First(user).Error
		if err != nil {
			return errors.New("wrong username or password, or the user has been banned")
		}
	}
	okay := common.ValidatePasswordAndHash(password, user.Password)
	if !okay || user.Status != common.UserStatusEnabled {
		return errors.New("wrong username or password, or the user has been banned")
	}
	return nil
}

func ValidateAccessToken(token string) (user *User) {
	if token == "" {
		return nil
	}
	token = strings.TrimPrefix(token, "Bearer ")
	user = &User{}
	if DB.Where("access_token = ?", token).First(user).RowsAffected == 1 {
		return user
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

// AddUserUsage bumps the per-user usage counters. Called by the render
// callback (renders) and the pipeline (tokens).
func AddUserUsage(userId int, renders int64, tokens int64) error {
	return DB.Model(&User{}).Where("id = ?", userId).Updates(map[string]any{
		"renders_used": gorm.Expr("renders_used + ?", renders),
		"tokens_used":  gorm.Expr("tokens_used + ?", tokens),
	}).Error
}

// UpdateSubscription is driven by the Stripe webhook.
func UpdateSubscription(userId int, plan string, status string, periodEnd int64) error {
	err := DB.Model(&User{}).Where("id = ?", userId).Updates(map[string]any{
		"subscription_plan":       plan,
		"subscription_status":     status,
		"subscription_period_end": periodEnd,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}
