package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"restore-site/database"
	"restore-site/users"
)

func LoginGet(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", map[string]interface{}{
		"Footer": MakeFooter(),
	})
}

func LoginPost(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	user, err := users.Authenticate(database.Get(), username, password)
	if err != nil {
		return c.String(http.StatusUnauthorized, "Invalid credentials")
	}

	session, err := store.Get(c.Request(), "session")
	if err != nil {
		return c.String(http.StatusInternalServerError, "Unable to retrieve session")
	}
	session.Values["user_id"] = user.ID
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return c.String(http.StatusInternalServerError, "Unable to save session")
	}

	return c.Redirect(http.StatusSeeOther, "/restore")
}

func Logout(c echo.Context) error {
	session, _ := store.Get(c.Request(), "session")
	delete(session.Values, "user_id")
	session.Save(c.Request(), c.Response().Writer)
	return c.Redirect(http.StatusSeeOther, "/login")
}
