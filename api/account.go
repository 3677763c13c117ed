package api

import (
	"net/http"

	"github.com/Fiedly71/up-to-date-store-sub000/flow"
	"github.com/Fiedly71/up-to-date-store-sub000/rbac"
	"github.com/labstack/echo/v4"
)

func (h *Handler) HandleRegistration(c echo.Context) error {
	var body flow.Registration
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	acct, err := h.opts.Registration.Register(c.Request().Context(), body)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusCreated, acct)
}

func (h *Handler) HandleLogin(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	ctx := c.Request().Context()
	acct, err := h.opts.Login.Authenticate(ctx, body.Email, body.Password)
	if err != nil {
		return h.Fail(c, err)
	}

	s, err := h.opts.Sessions.Create(ctx, acct)
	if err != nil {
		return h.Fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"account":    acct,
		"token":      s.ID,
		"expires_at": s.ExpiresAt,
	})
}

func (h *Handler) HandleLogout(c echo.Context) error {
	if s := rbac.SessionFrom(c); s != nil {
		if err := h.opts.Sessions.Delete(c.Request().Context(), s.ID); err != nil {
			return h.Fail(c, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleWhoAmI(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "authenticated",
		"account": rbac.AccountFrom(c),
	})
}

func (h *Handler) HandleUpdateProfile(c echo.Context) error {
	var body struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	acct, err := h.opts.Profile.Update(c.Request().Context(), rbac.AccountFrom(c).ID, body.Name, body.Phone)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, acct)
}

func (h *Handler) HandleChangePassword(c echo.Context) error {
	var body struct {
		Current  string `json:"current_password"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	if err := h.opts.Profile.ChangePassword(c.Request().Context(), rbac.AccountFrom(c).ID, body.Current, body.Password); err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "password changed"})
}

func (h *Handler) HandleRecoveryInitiate(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	if err := h.opts.Recovery.Initiate(c.Request().Context(), body.Email); err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"status": "if an account exists for this email, a recovery link has been sent",
	})
}

func (h *Handler) HandleRecoveryInspect(c echo.Context) error {
	acct, err := h.opts.Recovery.Inspect(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"email": acct.Email})
}

type redeemBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) HandleRecoveryReset(c echo.Context) error {
	var body redeemBody
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	if _, err := h.opts.Recovery.ResetPassword(c.Request().Context(), body.Token, body.Password); err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *Handler) HandleInviteInspect(c echo.Context) error {
	acct, err := h.opts.Invites.Inspect(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"email": acct.Email, "name": acct.Name})
}

func (h *Handler) HandleInviteAccept(c echo.Context) error {
	var body redeemBody
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	acct, err := h.opts.Invites.Accept(c.Request().Context(), body.Token, body.Password)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, acct)
}

func (h *Handler) HandleInvite(c echo.Context) error {
	var body flow.Invitation
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	acct, link, err := h.opts.Invites.Invite(c.Request().Context(), body)
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"account": acct,
		"link":    link,
	})
}

func (h *Handler) HandleListAccounts(c echo.Context) error {
	accounts, err := h.opts.Accounts.ListAccounts(c.Request().Context())
	if err != nil {
		return h.Fail(c, err)
	}
	return c.JSON(http.StatusOK, accounts)
}
