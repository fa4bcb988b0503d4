// Package server contains the REST handlers of the mini-app API. Handlers
// translate requests into store operations; the only business logic they
// touch lives in the publisher package (scheduling reconciler and the
// read-side visibility filter).
package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

const (
	defaultPageLimit = 10
)

// pagination reads limit/offset query params with the defaults every admin
// listing uses.
func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageLimit
	offset = 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// serverError responds 500 with the store-provided detail. Interactive
// callers can retry; nothing here is fatal to the process.
func serverError(c *gin.Context, msg string, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
