package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"

	"restore-site/config"
	"restore-site/database"
	"restore-site/restorations"
	"restore-site/videos"
)

// VideosGet lists the user's videos and their restoration states.
func VideosGet(c echo.Context) error {
	userID := c.Get("user_id").(uint)

	var vids []videos.Video
	database.Get().Where("user_id = ?", userID).Order("id DESC").Find(&vids)

	type row struct {
		videos.Video
		Restoration restorations.Restoration
	}
	rows := make([]row, 0, len(vids))
	for _, v := range vids {
		r := row{Video: v}
		database.Get().Where("video_id = ?", v.ID).Order("id DESC").First(&r.Restoration)
		rows = append(rows, r)
	}

	return c.Render(http.StatusOK, "videos.html", map[string]interface{}{
		"videos": rows,
		"Footer": MakeFooter(),
	})
}

// VideoGet renders one video's page. The view is a pure function of
// the restoration's status and result: idle, in progress, completed,
// or failed, each mutually exclusive.
func VideoGet(c echo.Context) error {
	userID := c.Get("user_id").(uint)
	id, _ := strconv.Atoi(c.Param("id"))

	video, err := videos.Get(uint(id))
	if err != nil || video.UserID != userID {
		return c.Redirect(http.StatusSeeOther, "/videos")
	}

	var rest restorations.Restoration
	database.Get().Where("video_id = ?", video.ID).Order("id DESC").First(&rest)

	previewURL := video.URL
	if video.HasPayload() {
		tempURL, err := CreateTempURL(filepath.Join(config.GetDataDir(), video.Filename))
		if err == nil {
			previewURL = "/temp/" + tempURL.Token
		}
	}

	return c.Render(http.StatusOK, "video.html", map[string]interface{}{
		"video":       video,
		"restoration": rest,
		"previewURL":  previewURL,
		"frameOnly":   !video.HasPayload(), // link source: frame-only analysis
		"Footer":      MakeFooter(),
	})
}

// RestorePost starts a pipeline run for a video. At most one run may
// be active per video; a finished video needs a retry reset first.
func RestorePost(c echo.Context) error {
	userID := c.Get("user_id").(uint)
	id, _ := strconv.Atoi(c.Param("id"))

	video, err := videos.Get(uint(id))
	if err != nil || video.UserID != userID {
		return c.Redirect(http.StatusSeeOther, "/videos")
	}

	if _, active := restorations.ActiveForVideo(video.ID); active || runInFlight(video.ID) {
		log.Warnln("restoration already active for video", video.ID)
		return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/video/%d", video.ID))
	}

	if !(envCredentials{}).HasCredential() {
		(envCredentials{}).PromptSelection()
		var latest restorations.Restoration
		database.Get().Where("video_id = ?", video.ID).Order("id DESC").First(&latest)
		return c.Render(http.StatusOK, "video.html", map[string]interface{}{
			"video":       video,
			"restoration": latest,
			"frameOnly":   !video.HasPayload(),
			"Warning":     "no access credential is configured; set one and retry",
			"Footer":      MakeFooter(),
		})
	}

	var rest restorations.Restoration
	err = database.Get().Where("video_id = ?", video.ID).Order("id DESC").First(&rest).Error
	if err != nil || rest.Status.Terminal() {
		rest = restorations.Restoration{
			UserID:  userID,
			VideoID: video.ID,
			Status:  restorations.StatusIdle,
		}
		if err := database.Get().Create(&rest).Error; err != nil {
			return err
		}
	}

	if err := startRun(rest, video); err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/video/%d", video.ID))
}

// RetryPost resets a finished restoration back to idle. It does not
// start a new run: the user re-triggers explicitly.
func RetryPost(c echo.Context) error {
	userID := c.Get("user_id").(uint)
	id, _ := strconv.Atoi(c.Param("id"))

	video, err := videos.Get(uint(id))
	if err != nil || video.UserID != userID {
		return c.Redirect(http.StatusSeeOther, "/videos")
	}

	var rest restorations.Restoration
	err = database.Get().Where("video_id = ?", video.ID).Order("id DESC").First(&rest).Error
	if err == nil && rest.Status.Terminal() {
		if err := restorations.Reset(rest.ID); err != nil {
			log.Errorln(err)
		}
	}

	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/video/%d", video.ID))
}

// DeletePost discards a video, its stored payload, and its
// restorations. An in-flight run's polling is cancelled through the
// run registry, not merely unobserved.
func DeletePost(c echo.Context) error {
	userID := c.Get("user_id").(uint)
	id, _ := strconv.Atoi(c.Param("id"))

	video, err := videos.Get(uint(id))
	if err != nil || video.UserID != userID {
		return c.Redirect(http.StatusSeeOther, "/videos")
	}

	CancelRun(video.ID)

	if video.Filename != "" {
		path := filepath.Join(config.GetDataDir(), video.Filename)
		if err := os.Remove(path); err != nil {
			log.Errorln("error removing", path, err)
		}
	}

	database.Get().Where("video_id = ?", video.ID).Delete(&restorations.Restoration{})
	database.Get().Delete(&video)

	return c.Redirect(http.StatusSeeOther, "/videos")
}

// ResultGet streams the generated video through the server as a
// download, so the access credential embedded in the result URL never
// reaches the page.
func ResultGet(c echo.Context) error {
	userID := c.Get("user_id").(uint)
	id, _ := strconv.Atoi(c.Param("id"))

	video, err := videos.Get(uint(id))
	if err != nil || video.UserID != userID {
		return c.Redirect(http.StatusSeeOther, "/videos")
	}

	var rest restorations.Restoration
	err = database.Get().Where("video_id = ?", video.ID).Order("id DESC").First(&rest).Error
	if err != nil || rest.Status != restorations.StatusCompleted || rest.ResultURL == "" {
		return c.String(http.StatusNotFound, "no restored video available")
	}

	resp, err := http.Get(rest.ResultURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.String(http.StatusBadGateway,
			fmt.Sprintf("couldn't fetch restored video: status %d", resp.StatusCode))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="restored-%d.mp4"`, video.ID))
	return c.Stream(http.StatusOK, "video/mp4", resp.Body)
}
