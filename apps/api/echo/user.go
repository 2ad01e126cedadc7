package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/auth"
)

type userApi struct {
	accounts   *account.Service
	registrar  *auth.Registrar
	login      *auth.Login
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, authed echo.MiddlewareFunc, deps *Deps) {
	api := userApi{
		accounts:   deps.Accounts,
		registrar:  deps.Registrar,
		login:      deps.Login,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ug := g.Group("/user")

	// un-authed endpoints
	// TODO: rate limit the `send-*-otp` endpoints per address
	ug.POST("/send-register-otp", api.sendRegisterOtp)
	ug.POST("/verify-register-otp", api.verifyRegisterOtp)
	ug.POST("/register", api.register)
	ug.POST("/send-login-otp", api.sendLoginOtp)
	ug.POST("/verify-login-otp", api.verifyLoginOtp)
	ug.POST("/login", api.passwordLogin)
	ug.POST("/find", api.find)
	ug.POST("/find-by-email", api.find)

	// authed endpoints
	ug.POST("/delete", api.destroy, authed)
}

// Handlers

func (api *userApi) sendRegisterOtp(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := api.registrar.RequestCode(ctx.Request().Context(), "", data.Email); err != nil {
		return errors.Wrap(err, "requesting registration code")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "OTP sent to email"})
}

func (api *userApi) verifyRegisterOtp(ctx echo.Context) error {
	var data CodeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CodeRequest")
	}
	if err := api.registrar.VerifyCode(ctx.Request().Context(), data.Email, data.Code); err != nil {
		return errors.Wrap(err, "verifying registration code")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "OTP verified"})
}

func (api *userApi) register(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	return completeRegistration(ctx, api.registrar, data)
}

func completeRegistration(ctx echo.Context, registrar *auth.Registrar, data account.NewAccount) error {
	acc, err := registrar.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering account")
	}
	return ctx.JSON(http.StatusCreated, RegisterResponse{
		Message: string(acc.Role) + " registered successfully",
		User:    acc.Summary(),
	})
}

func (api *userApi) sendLoginOtp(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := api.login.RequestLoginCode(ctx.Request().Context(), data.Email); err != nil {
		return errors.Wrap(err, "requesting login code")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "OTP sent to email"})
}

func (api *userApi) verifyLoginOtp(ctx echo.Context) error {
	var data CodeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CodeRequest")
	}
	sess, err := api.login.CompleteLoginWithCode(ctx.Request().Context(), data.Email, data.Code)
	if err != nil {
		return errors.Wrap(err, "logging in with code")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Message: "Login successful", Session: sess})
}

func (api *userApi) passwordLogin(ctx echo.Context) error {
	var data auth.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	sess, err := api.login.PasswordLogin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging in with password")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Message: "Login successful", Session: sess})
}

func (api *userApi) find(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.accounts.Resolve(ctx.Request().Context(), data.Email)
	if err != nil {
		return core.NewStoreError(err, "resolving address")
	}
	switch res.Kind {
	case account.KindOrdinary:
		profile := res.Account.Profile()
		return ctx.JSON(http.StatusOK, FindResponse{Type: "user", User: &profile})
	case account.KindPrivileged:
		profile := res.Admin.Profile()
		return ctx.JSON(http.StatusOK, FindResponse{Type: "admin", Admin: &profile})
	}
	return core.NewNotFoundError(msgUserNotFound)
}

// destroy removes an ordinary account. Callers may only remove their own, unless they are super admins.
func (api *userApi) destroy(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := getContextSubject(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context subject")
	}
	self := res.Kind == account.KindOrdinary && res.Account.Email == data.Email
	if !(self || res.IsSuper()) {
		return errHttpForbidden
	}
	return deleteAccount(ctx, api.accounts, data.Email)
}

func deleteAccount(ctx echo.Context, accounts *account.Service, email string) error {
	if err := accounts.Delete(ctx.Request().Context(), email); err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return core.NewNotFoundError(msgUserNotFound)
		}
		return core.NewStoreError(err, "deleting account")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}

type (
	EmailRequest struct {
		Email string `json:"email" query:"email" validate:"required,email"`
	}

	CodeRequest struct {
		Email string `json:"email"`
		Code  string `json:"otp"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	RegisterResponse struct {
		Message string          `json:"message"`
		User    account.Summary `json:"user"`
	}

	SessionResponse struct {
		Message string `json:"message"`
		auth.Session
	}

	FindResponse struct {
		Type  string                `json:"type"`
		User  *account.Profile      `json:"user,omitempty"`
		Admin *account.AdminProfile `json:"admin,omitempty"`
	}
)

func (er *EmailRequest) Validate(validate *validator.Validate) error {
	er.Email = core.NormalizeEmail(er.Email)
	return validate.Struct(er)
}
