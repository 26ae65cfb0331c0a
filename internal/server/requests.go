package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type sessionRequest struct {
	UserID int64  `json:"user_id" binding:"required,gt=0"`
	Name   string `json:"name" binding:"required,name"`
}

type leaveRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
}

type actionRequest struct {
	UserID int64  `json:"user_id" binding:"required,gt=0"`
	Action string `json:"action" binding:"required,token"`
}

type confirmRequest struct {
	UserID int64  `json:"user_id" binding:"required,gt=0"`
	Photo  string `json:"photo" binding:"required,photo"`
}

type codeURI struct {
	Code string `uri:"code" binding:"required,alphanum,max=12"`
}

type matchURI struct {
	ID uint `uri:"id" binding:"required,gt=0"`
}

// fieldMessages maps a struct field and a failed validation tag to the
// message returned to the client.
type fieldMessages map[string]map[string]string

var userIDMessages = map[string]string{
	"required": "user_id is required",
	"gt":       "user_id is required",
}

var requestMessages = fieldMessages{
	"UserID": userIDMessages,
	"Name": {
		"required": "name is required",
		"name":     "name must be 1-20 letters, digits or simple punctuation",
	},
	"Action": {
		"required": "action is required",
		"token":    "action is malformed",
	},
	"Photo": {
		"required": "photo is required",
		"photo":    "photo reference is too long",
	},
}

// bindBody decodes the JSON body into req and answers 400 with the first
// known validation message when it does not validate.
func bindBody(c *gin.Context, req any, fallback string) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": requestMessages.resolve(err, fallback)})
	return false
}

// bindPath answers 404 for path parameters that cannot name a resource.
func bindPath(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return false
	}
	return true
}

func (m fieldMessages) resolve(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if msg, ok := m[verr.Field()][verr.Tag()]; ok {
				return msg
			}
		}
	}
	return fallback
}
