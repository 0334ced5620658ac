package service

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openkanban/kanband/internal/config"
	"github.com/openkanban/kanband/internal/domain"
	"github.com/openkanban/kanband/internal/errors"
	"github.com/openkanban/kanband/internal/logger"
	"github.com/openkanban/kanband/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// to mock service in tests
type AuthService interface {
	Signup(username, email, password string) error
	VerifyOtp(username, otp string) error
	Login(username, password string) (string, error)
	SearchUsers(query string, requester domain.UserId) ([]domain.User, error)
}

type Auth struct {
	storage AuthStorage
	email   EmailSender
	jwt     Jwt
	cfg     *config.Config
}

type AuthStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	UserByUsername(username domain.Username) (domain.User, error)
	UserByEmail(email domain.Email) (domain.User, error)
	ConfirmUser(id domain.UserId) error
	DeleteUser(id domain.UserId) error
	SearchUsers(query string, exclude domain.UserId, limit int) ([]domain.User, error)
}

type EmailSender interface {
	Send(recipientEmail, subject, body string) error
	IsCorrect(email domain.Email) error
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
}

func NewAuth(storage AuthStorage, email EmailSender, jwt Jwt, cfg *config.Config) *Auth {
	return &Auth{storage, email, jwt, cfg}
}

// Signup creates an unverified user and emails a one-time code.
// The account stays unusable until VerifyOtp succeeds.
func (a *Auth) Signup(username, email, password string) error {
	email = strings.ToLower(email)

	if err := a.email.IsCorrect(email); err != nil {
		return err
	}

	if existing, err := a.storage.UserByUsername(username); err == nil {
		if err := a.releaseStaleSignup(existing, "User exists"); err != nil {
			return err
		}
	} else if !errors.IsNotFound(err) {
		return err
	}
	if existing, err := a.storage.UserByEmail(email); err == nil {
		if err := a.releaseStaleSignup(existing, "Email already registered"); err != nil {
			return err
		}
	} else if !errors.IsNotFound(err) {
		return err
	}

	otp := utils.GenerateOtp(a.cfg.Public.OtpLen)
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return err
	}
	otpHash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash otp", "error", err)
		return err
	}

	_, err = a.storage.SaveUser(domain.User{
		Username:   username,
		Email:      email,
		PassHash:   string(passHash),
		OtpHash:    string(otpHash),
		OtpExpires: time.Now().UTC().Add(a.cfg.OtpTTL()),
	})
	if err != nil {
		return err
	}

	body := "Your verification code is: " + otp + "\n\nIf you did not request this, please ignore this email."
	if err := a.email.Send(email, "Your signup verification code", body); err != nil {
		return &errors.ErrorWithStatusCode{Message: "Failed to send OTP email", StatusCode: http.StatusInternalServerError}
	}
	return nil
}

// releaseStaleSignup frees a username/email slot held by an unverified
// signup whose code already expired, so the registration can be retried.
// Verified accounts and still-pending signups keep the slot.
func (a *Auth) releaseStaleSignup(user domain.User, takenMessage string) error {
	if user.EmailVerified {
		return &errors.ErrorWithStatusCode{Message: takenMessage, StatusCode: http.StatusBadRequest}
	}
	if user.OtpExpires.After(time.Now()) {
		diff := time.Until(user.OtpExpires)
		return &errors.ErrorWithStatusCode{Message: fmt.Sprintf("Previous verification code is still valid. Retry after %.0fs", diff.Seconds()), StatusCode: http.StatusTooEarly}
	}
	return a.storage.DeleteUser(user.Id)
}

// VerifyOtp checks the emailed code and marks the account verified.
func (a *Auth) VerifyOtp(username, otp string) error {
	user, err := a.storage.UserByUsername(username)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return &errors.ErrorWithStatusCode{Message: "Email already verified", StatusCode: http.StatusBadRequest}
	}
	if user.OtpExpires.Before(time.Now()) {
		return &errors.ErrorWithStatusCode{Message: "Verification code expired", StatusCode: http.StatusBadRequest}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.OtpHash), []byte(otp)); err != nil {
		logger.Log.Error("otp verification failed", "username", username, "error", err)
		return &errors.ErrorWithStatusCode{Message: "Invalid OTP", StatusCode: http.StatusBadRequest}
	}
	return a.storage.ConfirmUser(user.Id)
}

// Login checks credentials and returns an access token.
// Unknown user and wrong password are indistinguishable to the caller.
func (a *Auth) Login(username, password string) (string, error) {
	user, err := a.storage.UserByUsername(username)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", &errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err != nil {
		logger.Log.Error("password verification failed", "username", username, "error", err)
		return "", &errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}
	}

	if !user.EmailVerified {
		return "", &errors.ErrorWithStatusCode{Message: "Email not verified", StatusCode: http.StatusBadRequest}
	}

	token, err := a.jwt.NewToken(user)
	if err != nil {
		logger.Log.Error("failed to create jwt token", "user_id", user.Id, "error", err)
		return "", err
	}
	return token, nil
}

// SearchUsers is the share-dialog lookup: case-insensitive substring match,
// capped at 10 results, never including the requester.
func (a *Auth) SearchUsers(query string, requester domain.UserId) ([]domain.User, error) {
	if len(query) < 2 {
		return []domain.User{}, nil
	}
	return a.storage.SearchUsers(query, requester, 10)
}
