package app

import (
	"context"
	"fmt"

	"github.com/sebastian05-bossu/1337loader/internal/models"
	"github.com/sebastian05-bossu/1337loader/internal/store"
	"gorm.io/gorm"
)

// HasOwnerInitialized reports whether any profile holds the owner grant.
func HasOwnerInitialized(ctx context.Context, conn *gorm.DB) (bool, error) {
	if conn == nil {
		return false, fmt.Errorf("nil db")
	}
	if !conn.Migrator().HasTable(&models.AdminUser{}) {
		return false, nil
	}
	return store.NewGormStore(conn).HasOwner(ctx)
}
