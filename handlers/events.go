package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/labstack/echo/v4"

	"restore-site/restorations"
)

// RestorationEvents pushes status transitions of the user's runs over
// SSE so the video page can refresh itself.
func RestorationEvents(c echo.Context) error {
	user, err := GetUser(c)
	if err != nil {
		return err
	}

	req := c.Request()
	res := c.Response()

	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")

	done := req.Context().Done()

	q := restorations.Subscribe(user.Id)
	defer restorations.Unsubscribe(user.Id, q)

	for {
		select {
		case <-done:
			return nil
		case event := <-q.Ch:
			jsonData, err := json.Marshal(event)
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("data: %s\n\n", jsonData)
			if _, err := res.Write([]byte(msg)); err != nil {
				return err
			}
			res.Flush()
		}
	}
}
