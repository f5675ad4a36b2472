package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/orionchat/registry"
	"github.com/orionchat/registry/internal/domain"
	"github.com/orionchat/registry/internal/present/rest/middleware"
	"github.com/orionchat/registry/internal/present/rest/presenter"
	"github.com/orionchat/registry/internal/service"
	"github.com/orionchat/registry/internal/usecase"
)

// EventStreamer bridges registry events to a realtime connection.
type EventStreamer interface {
	Realtime(ctx context.Context, input <-chan []string, output chan<- registry.Event)
}

type Handler struct {
	config   domain.Config
	registry *usecase.RegistryUsecase
	account  *usecase.AccountUsecase
	identity *usecase.IdentityUsecase
	prekey   *usecase.PreKeyUsecase
	auth     *service.AuthService
	events   EventStreamer
}

func NewHandler(
	config domain.Config,
	reg *usecase.RegistryUsecase,
	account *usecase.AccountUsecase,
	identity *usecase.IdentityUsecase,
	prekey *usecase.PreKeyUsecase,
	auth *service.AuthService,
	events EventStreamer,
) *Handler {
	return &Handler{
		config:   config,
		registry: reg,
		account:  account,
		identity: identity,
		prekey:   prekey,
		auth:     auth,
		events:   events,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/orion", h.handleWellKnown)
	e.POST("/api/v1/register", h.handleRegister)
	e.POST("/api/v1/login", h.handleLogin)
	e.POST("/api/v1/keys/identity", h.handleIdentityUpload)
	e.GET("/api/v1/keys/identity/:userId", h.handleIdentityGet)
	e.DELETE("/api/v1/keys/identity/:userId", h.handleIdentityDelete)
	e.POST("/api/v1/keys/prekeys", h.handlePreKeyUpload)
	e.GET("/api/v1/keys/bundle/:userId", h.handleBundle)
	e.GET("/api/v1/users", h.handleUsers)
	e.GET("/api/v1/users/search", h.handleUserSearch)
	e.GET("/api/v1/diag/tables", h.handleDiagTables)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	return presenter.OK(c, echo.Map{
		"version": "1.0",
		"domain":  h.config.FQDN,
		"endpoints": map[string]string{
			"chat.orion.register": "/api/v1/register",
			"chat.orion.login":    "/api/v1/login",
			"chat.orion.identity": "/api/v1/keys/identity",
			"chat.orion.prekeys":  "/api/v1/keys/prekeys",
			"chat.orion.bundle":   "/api/v1/keys/bundle/{userId}",
			"chat.orion.realtime": "/realtime",
		},
	})
}

// present maps domain outcomes to HTTP statuses. Expected conflicts are 409,
// transient storage faults 503; only genuinely unexpected errors become 500.
func present(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateAccount):
		return presenter.Conflict(c, "an account with this username or email already exists")
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidKey):
		return presenter.BadRequest(c, err)
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return presenter.Unauthorized(c, "unauthorized")
	case errors.Is(err, domain.ErrStorageUnavailable):
		return presenter.Unavailable(c, err)
	default:
		return presenter.InternalError(c, err)
	}
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var req registry.RegisterRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	var publicKey []byte
	var registrationID int
	if req.PublicKey != nil {
		if req.RegistrationID == nil {
			return presenter.BadRequestMessage(c, "registrationId is required with publicKey")
		}
		publicKey, err = registry.DecodeKey(*req.PublicKey)
		if err != nil {
			return presenter.BadRequest(c, err)
		}
		registrationID = *req.RegistrationID
	}

	user, record, err := h.registry.RegisterAndBootstrap(ctx, req.Username, req.Email, req.Password, publicKey, registrationID)
	if err != nil {
		return present(c, err)
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	response := registry.RegisterResponse{
		Token: token,
		User:  userToWire(user),
	}
	if record != nil {
		identity := identityToWire(*record)
		response.Identity = &identity
	}

	return presenter.Created(c, response)
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req registry.LoginRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	user, err := h.account.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return present(c, err)
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, registry.LoginResponse{Token: token, User: userToWire(user)})
}

func (h *Handler) handleIdentityUpload(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := middleware.RequesterID(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req registry.IdentityUpload
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.UserID == "" {
		req.UserID = requester
	}
	if req.UserID != requester {
		return presenter.Unauthorized(c, "cannot upload keys for another user")
	}

	publicKey, err := registry.DecodeKey(req.PublicKey)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	record, err := h.registry.RotateIdentity(ctx, req.UserID, publicKey, req.RegistrationID)
	if err != nil {
		return present(c, err)
	}

	return presenter.OK(c, identityToWire(record))
}

func (h *Handler) handleIdentityGet(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := h.identity.Get(ctx, c.Param("userId"))
	if err != nil {
		return present(c, err)
	}

	fingerprint, err := h.identity.Fingerprint(record)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{
		"identity":    identityToWire(record),
		"fingerprint": fingerprint,
	})
}

func (h *Handler) handleIdentityDelete(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := middleware.RequesterID(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}
	userID := c.Param("userId")
	if userID != requester {
		return presenter.Unauthorized(c, "cannot delete keys for another user")
	}

	if err := h.identity.Delete(ctx, userID); err != nil {
		return present(c, err)
	}

	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handlePreKeyUpload(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := middleware.RequesterID(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req registry.PreKeyUpload
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.UserID == "" {
		req.UserID = requester
	}
	if req.UserID != requester {
		return presenter.Unauthorized(c, "cannot upload keys for another user")
	}

	signed, err := signedPreKeyFromWire(req.UserID, req.SignedPreKey)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	oneTime := make([]domain.OneTimePreKey, 0, len(req.OneTimePreKeys))
	for _, pk := range req.OneTimePreKeys {
		publicKey, err := registry.DecodeKey(pk.PublicKey)
		if err != nil {
			return presenter.BadRequest(c, err)
		}
		oneTime = append(oneTime, domain.OneTimePreKey{
			UserID:    req.UserID,
			KeyID:     pk.KeyID,
			PublicKey: publicKey,
		})
	}

	if err := h.prekey.Upload(ctx, signed, oneTime); err != nil {
		return present(c, err)
	}

	return presenter.OK(c, echo.Map{"status": "ok", "count": len(oneTime)})
}

func (h *Handler) handleBundle(c echo.Context) error {
	ctx := c.Request().Context()

	identity, signed, oneTime, err := h.prekey.Bundle(ctx, c.Param("userId"))
	if err != nil {
		return present(c, err)
	}

	bundle := registry.PreKeyBundle{
		IdentityKey:    registry.EncodeKey(identity.PublicKey),
		RegistrationID: identity.RegistrationID,
		SignedPreKey: registry.SignedPreKey{
			KeyID:     signed.KeyID,
			PublicKey: registry.EncodeKey(signed.PublicKey),
			Signature: registry.EncodeKey(signed.Signature),
		},
	}
	if oneTime != nil {
		bundle.OneTimePreKey = &registry.OneTimePreKey{
			KeyID:     oneTime.KeyID,
			PublicKey: registry.EncodeKey(oneTime.PublicKey),
		}
	}

	return presenter.OK(c, bundle)
}

func (h *Handler) handleUsers(c echo.Context) error {
	ctx := c.Request().Context()

	requester, _ := middleware.RequesterID(ctx)

	users, err := h.account.List(ctx, requester)
	if err != nil {
		return present(c, err)
	}

	return presenter.OK(c, usersToWire(users))
}

func (h *Handler) handleUserSearch(c echo.Context) error {
	ctx := c.Request().Context()

	q := c.QueryParam("q")
	if q == "" {
		return presenter.BadRequestMessage(c, "q parameter is required")
	}

	requester, _ := middleware.RequesterID(ctx)

	users, err := h.account.Search(ctx, q, requester)
	if err != nil {
		return present(c, err)
	}

	return presenter.OK(c, usersToWire(users))
}

// handleDiagTables exposes row counts for operational debugging. Not part of
// the registry contract.
func (h *Handler) handleDiagTables(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.account.TableCounts(ctx)
	if err != nil {
		return present(c, err)
	}

	return presenter.OK(c, counts)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type    string   `json:"type"`
	UserIDs []string `json:"userIds"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	// canceling the context stops the streamer and unblocks the reader, so
	// neither goroutine outlives the connection
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	input := make(chan []string)
	output := make(chan registry.Event)

	go h.events.Realtime(ctx, input, output)

	quit := make(chan struct{}, 1)

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.UserIDs:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.UserIDs),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}

func userToWire(user domain.User) registry.User {
	return registry.User{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Avatar:   user.Avatar,
	}
}

func usersToWire(users []domain.User) []registry.User {
	out := make([]registry.User, 0, len(users))
	for _, user := range users {
		out = append(out, userToWire(user))
	}
	return out
}

func identityToWire(record domain.IdentityRecord) registry.Identity {
	return registry.Identity{
		UserID:         record.UserID,
		PublicKey:      registry.EncodeKey(record.PublicKey),
		RegistrationID: record.RegistrationID,
		UpdatedAt:      record.UpdatedAt,
	}
}

func signedPreKeyFromWire(userID string, wire registry.SignedPreKey) (domain.SignedPreKey, error) {
	publicKey, err := registry.DecodeKey(wire.PublicKey)
	if err != nil {
		return domain.SignedPreKey{}, err
	}
	signature, err := registry.DecodeKey(wire.Signature)
	if err != nil {
		return domain.SignedPreKey{}, err
	}
	return domain.SignedPreKey{
		UserID:    userID,
		KeyID:     wire.KeyID,
		PublicKey: publicKey,
		Signature: signature,
	}, nil
}
