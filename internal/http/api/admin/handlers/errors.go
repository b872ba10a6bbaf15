package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/adminops"
	"github.com/sebastian05-bossu/1337loader/internal/store"
	log "github.com/sirupsen/logrus"
)

// writeAdminError maps administrative action failures to HTTP responses.
func writeAdminError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, adminops.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "owner access required"})
	case errors.Is(err, adminops.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), "adminops: ")})
	case errors.Is(err, adminops.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, adminops.ErrAlreadyBanned):
		c.JSON(http.StatusConflict, gin.H{"error": "user is already banned"})
	case errors.Is(err, adminops.ErrNotBanned):
		c.JSON(http.StatusNotFound, gin.H{"error": "user is not banned"})
	default:
		log.WithError(err).Errorf("admin %s failed", action)
		c.JSON(http.StatusInternalServerError, gin.H{"error": action + " failed"})
	}
}

// listOptions reads q, limit and offset query parameters.
func listOptions(c *gin.Context) store.ListOptions {
	opts := store.ListOptions{Query: strings.TrimSpace(c.Query("q"))}
	if limit, errParse := strconv.Atoi(c.Query("limit")); errParse == nil && limit > 0 {
		opts.Limit = limit
	}
	if offset, errParse := strconv.Atoi(c.Query("offset")); errParse == nil && offset > 0 {
		opts.Offset = offset
	}
	return opts
}
