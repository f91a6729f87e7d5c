package controller

import "github.com/labstack/echo/v4"

type NoteController interface {
	Create(c echo.Context) error
	List(c echo.Context) error
	Get(c echo.Context) error
	Delete(c echo.Context) error
	Search(c echo.Context) error
	Export(c echo.Context) error
}
