package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	msgRegisterFailed = "Error registering user"
	msgLoginFailed    = "Error logging in"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (s *HTTPServer) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: common.ErrInvalidInput.Error()})
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidInput),
			errors.Is(err, common.ErrUsernameTaken),
			errors.Is(err, common.ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
		default:
			s.logger.Error(c.Request.Context(), "register failed", "error", err, "request_id", c.GetString(requestIDKey))
			c.JSON(http.StatusInternalServerError, messageResponse{Message: msgRegisterFailed})
		}
		return
	}

	s.logger.Info(c.Request.Context(), "user registered", "user_id", user.ID, "username", user.UserName)
	c.JSON(http.StatusCreated, user)
}

func (s *HTTPServer) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: common.ErrInvalidInput.Error()})
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
		case errors.Is(err, common.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, messageResponse{Message: err.Error()})
		default:
			s.logger.Error(c.Request.Context(), "login failed", "error", err, "request_id", c.GetString(requestIDKey))
			c.JSON(http.StatusInternalServerError, messageResponse{Message: msgLoginFailed})
		}
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Message: fmt.Sprintf("welcome, %s", res.User.UserName),
		Token:   res.Token,
	})
}

func (s *HTTPServer) jokes(c *gin.Context) {
	c.JSON(http.StatusOK, services.Jokes())
}

func (s *HTTPServer) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
