package presenter

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

// Created wraps a successful creation response.
func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	fmt.Println("Bad request:", err)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	fmt.Println("Bad request:", msg)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	fmt.Println("Not found:", msg)
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

// Conflict is the expected-duplicate outcome. Distinct from InternalError on
// purpose: a duplicate registration is not a server fault.
func Conflict(c echo.Context, msg string) error {
	fmt.Println("Conflict:", msg)
	return c.JSON(http.StatusConflict, errorResponse{Error: msg})
}

// Unavailable signals a transient storage fault the caller may retry.
func Unavailable(c echo.Context, err error) error {
	fmt.Println("Storage unavailable:", err)
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable, retry later"})
}

func InternalError(c echo.Context, err error) error {
	fmt.Println("Internal error:", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
