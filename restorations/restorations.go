package restorations

import (
	"gorm.io/gorm"

	"restore-site/database"
)

type Status string

const (
	StatusIdle          Status = "idle"
	StatusAnalyzing     Status = "analyzing"
	StatusCleaningFrame Status = "cleaning frame"
	StatusGenerating    Status = "generating"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

// Terminal reports whether a run in this status is over.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Active reports whether a run in this status is still in flight.
func (s Status) Active() bool {
	return s != StatusIdle && !s.Terminal()
}

// Restoration tracks one pipeline run for one video. Only the
// transition helpers below write it; states that must not carry a
// field have it cleared on entry, so a page rendering the row can
// never read a stale error or result.
type Restoration struct {
	gorm.Model
	UserID    uint
	VideoID   uint
	Status    Status
	Message   string // human-readable progress message
	Progress  int    // 0-100, non-decreasing within a run
	Error     string // set only in StatusFailed
	ResultURL string // set only in StatusCompleted
}

// SetStatus moves a run into a non-terminal working state. The error
// and result fields are wiped; progress never goes backwards.
func SetStatus(id uint, status Status, message string, progress int) error {
	db := database.Get()
	log.Debugln("restoration", id, "status ->", status, progress, "%")

	updates := map[string]interface{}{
		"status":     status,
		"message":    message,
		"progress":   gorm.Expr("MAX(progress, ?)", clamp(progress)),
		"error":      "",
		"result_url": "",
	}
	err := db.Model(&Restoration{}).Where("id = ?", id).Updates(updates).Error
	if err == nil {
		publish(id, status)
	}
	return err
}

// SetFailed ends a run with the failure message shown to the user.
func SetFailed(id uint, errMsg string) error {
	db := database.Get()
	log.Debugln("restoration", id, "failed:", errMsg)

	err := db.Model(&Restoration{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     StatusFailed,
		"message":    "restoration failed",
		"error":      errMsg,
		"result_url": "",
	}).Error
	if err == nil {
		publish(id, StatusFailed)
	}
	return err
}

// SetCompleted ends a run with a playable result.
func SetCompleted(id uint, resultURL string) error {
	db := database.Get()
	log.Debugln("restoration", id, "completed")

	err := db.Model(&Restoration{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     StatusCompleted,
		"message":    "restoration complete",
		"progress":   100,
		"error":      "",
		"result_url": resultURL,
	}).Error
	if err == nil {
		publish(id, StatusCompleted)
	}
	return err
}

// Reset returns a run to idle so the user can trigger it again. The
// captured frame and description are not kept, so the next run starts
// from scratch.
func Reset(id uint) error {
	db := database.Get()
	log.Debugln("restoration", id, "reset to idle")

	err := db.Model(&Restoration{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     StatusIdle,
		"message":    "",
		"progress":   0,
		"error":      "",
		"result_url": "",
	}).Error
	if err == nil {
		publish(id, StatusIdle)
	}
	return err
}

func clamp(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

func Get(id uint) (Restoration, error) {
	var r Restoration
	err := database.Get().First(&r, "id = ?", id).Error
	return r, err
}

// ActiveForVideo returns the in-flight run for a video, if any. At
// most one run may be active per video.
func ActiveForVideo(videoID uint) (Restoration, bool) {
	var r Restoration
	err := database.Get().
		Where("video_id = ? AND status IN ?", videoID,
			[]Status{StatusAnalyzing, StatusCleaningFrame, StatusGenerating}).
		First(&r).Error
	return r, err == nil
}
