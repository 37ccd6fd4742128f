package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"restore-site/config"
	"restore-site/database"
	"restore-site/ffmpeg"
	"restore-site/videos"
)

func HomeGet(c echo.Context) error {
	return c.Render(http.StatusOK, "home.html", map[string]interface{}{
		"Footer": MakeFooter(),
	})
}

// RestoreGet renders the intake page: a file upload form and a
// direct-link form.
func RestoreGet(c echo.Context) error {
	return c.Render(http.StatusOK, "restore.html", map[string]interface{}{
		"Footer": MakeFooter(),
	})
}

// UploadPost stores an uploaded video payload under the data dir and
// creates its record.
func UploadPost(c echo.Context) error {
	userID := c.Get("user_id").(uint)

	fileHeader, err := c.FormFile("video")
	if err != nil {
		return renderRestoreWarning(c, "please choose a video file to upload")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	filename := uuid.Must(uuid.NewV7()).String() + filepath.Ext(fileHeader.Filename)
	dstPath := filepath.Join(config.GetDataDir(), filename)
	if err := os.MkdirAll(config.GetDataDir(), 0700); err != nil {
		return err
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	written, err := io.Copy(dst, src)
	dst.Close()
	if err != nil {
		os.Remove(dstPath)
		return err
	}

	mime := fileHeader.Header.Get("Content-Type")
	if mime == "" {
		mime = "video/mp4"
	}

	video := videos.Video{
		UserID:   userID,
		Source:   videos.SourceUpload,
		Filename: filename,
		MimeType: mime,
		Size:     written,
	}

	// metadata is best-effort; the pipeline re-checks dimensions at capture
	if w, h, err := ffmpeg.Dimensions(dstPath); err == nil {
		video.Width, video.Height = w, h
	}
	if length, err := ffmpeg.Length(dstPath); err == nil {
		video.Length = length
	}

	if err := database.Get().Create(&video).Error; err != nil {
		os.Remove(dstPath)
		return err
	}

	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/video/%d", video.ID))
}

type linkForm struct {
	URL string `form:"url" validate:"required,url"`
}

// LinkPost accepts a pasted direct link to a video file. The link is
// validated by suffix only; nothing is fetched, and the pipeline later
// analyzes the captured frame in place of the missing payload.
func LinkPost(c echo.Context) error {
	userID := c.Get("user_id").(uint)

	var form linkForm
	if err := c.Bind(&form); err != nil {
		return renderRestoreWarning(c, "please paste a link to a video file")
	}
	if err := c.Validate(&form); err != nil {
		return renderRestoreWarning(c, "please paste a valid link to a video file")
	}

	mime, err := videos.AcceptLink(form.URL)
	if err != nil {
		return renderRestoreWarning(c, err.Error())
	}

	video := videos.Video{
		UserID:   userID,
		Source:   videos.SourceLink,
		URL:      form.URL,
		MimeType: mime,
	}
	if err := database.Get().Create(&video).Error; err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/video/%d", video.ID))
}

func renderRestoreWarning(c echo.Context, warning string) error {
	return c.Render(http.StatusOK, "restore.html", map[string]interface{}{
		"Warning": warning,
		"Footer":  MakeFooter(),
	})
}
