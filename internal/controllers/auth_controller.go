package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/models"
)

// UserFinder looks up login candidates by email.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateToken(userID, role string) (string, error)
}

type AuthController struct {
	users  UserFinder
	tokens TokenIssuer
}

func NewAuthController(users UserFinder, tokens TokenIssuer) *AuthController {
	return &AuthController{users: users, tokens: tokens}
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var body loginInput
	if err := c.ShouldBindJSON(&body); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	user, err := ac.users.FindByEmail(c.Request.Context(), body.Email)
	if err != nil {
		if errors.Is(err, fleet.ErrNotFound) {
			respondMessage(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		logrus.WithField("user_id", user.ID).Warn("Login rejected: password mismatch.")
		respondMessage(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := ac.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		logrus.WithError(err).Error("could not generate token")
		respondMessage(c, http.StatusInternalServerError, "could not generate token")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
