package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/auth"
)

type parentApi struct {
	linker *auth.Linker
}

func registerParentAPI(g *echo.Group, authed echo.MiddlewareFunc, deps *Deps) {
	api := parentApi{linker: deps.Linker}

	pg := g.Group("/parent")
	pg.POST("/verify-child-email", api.verifyChildEmail)
	pg.POST("/verify-child-otp", api.verifyChildOtp)
	pg.GET("/child-profile", api.childProfile, authed)
}

// Handlers

func (api *parentApi) verifyChildEmail(ctx echo.Context) error {
	var data ChildEmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChildEmailRequest")
	}
	if err := api.linker.VerifyChildEmail(ctx.Request().Context(), data.ChildEmail); err != nil {
		return errors.Wrap(err, "verifying child email")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "OTP sent to child's email"})
}

func (api *parentApi) verifyChildOtp(ctx echo.Context) error {
	var data ChildCodeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChildCodeRequest")
	}
	if err := api.linker.VerifyChildOtp(ctx.Request().Context(), data.ChildEmail, data.Code); err != nil {
		return errors.Wrap(err, "verifying child code")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Child email verified"})
}

func (api *parentApi) childProfile(ctx echo.Context) error {
	res, err := getContextSubject(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context subject")
	}
	if res.Kind != account.KindOrdinary {
		return core.NewForbiddenError("Only parents can view a child profile")
	}

	child, err := api.linker.ChildProfile(ctx.Request().Context(), res.Account)
	if err != nil {
		return errors.Wrap(err, "finding child profile")
	}
	return ctx.JSON(http.StatusOK, ChildProfileResponse{Child: child.Profile()})
}

type (
	ChildEmailRequest struct {
		ChildEmail string `json:"child_email"`
	}

	ChildCodeRequest struct {
		ChildEmail string `json:"child_email"`
		Code       string `json:"otp"`
	}

	ChildProfileResponse struct {
		Child account.Profile `json:"child"`
	}
)
