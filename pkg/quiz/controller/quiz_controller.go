package controller

import "github.com/labstack/echo/v4"

type QuizController interface {
	Generate(c echo.Context) error
}
