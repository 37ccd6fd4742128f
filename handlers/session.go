package handlers

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

type User struct {
	Id uint
}

func GetUser(c echo.Context) (User, error) {
	session, err := store.Get(c.Request(), "session")
	if err != nil {
		return User{}, fmt.Errorf("couldn't retrieve session from store")
	}
	val, ok := session.Values["user_id"]
	if !ok {
		return User{}, fmt.Errorf("user_id not in session")
	}
	return User{Id: val.(uint)}, nil
}
