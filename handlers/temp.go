package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"restore-site/database"
)

// TempURL is a short-lived token for serving a stored file without
// exposing the data dir.
type TempURL struct {
	Token     string `gorm:"uniqueIndex"`
	FilePath  string
	ExpiresAt time.Time
}

func CreateTempURL(filePath string) (TempURL, error) {
	tempURL := TempURL{
		Token:     uuid.Must(uuid.NewV7()).String(),
		FilePath:  filePath,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := database.Get().Create(&tempURL).Error; err != nil {
		return TempURL{}, err
	}
	return tempURL, nil
}

func TempGet(c echo.Context) error {
	token := c.Param("token")

	var tempURL TempURL
	err := database.Get().
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&tempURL).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Invalid or expired token"})
	}

	return c.File(tempURL.FilePath)
}

func cleanupExpiredURLs() {
	log.Debugln("cleanupExpiredURLs...")
	result := database.Get().Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&TempURL{})
	if result.Error != nil {
		log.Errorf("error cleaning up expired URLs: %v", result.Error)
	} else {
		log.Debugf("cleaned up %d expired temporary URLs", result.RowsAffected)
	}
}

func PeriodicCleanup() {
	cleanupExpiredURLs()
	database.Vacuum()
	ticker := time.NewTicker(1 * time.Hour)
	for range ticker.C {
		cleanupExpiredURLs()
		database.Vacuum()
	}
}
