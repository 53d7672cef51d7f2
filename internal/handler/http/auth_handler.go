package http

import (
	"encoding/json"
	"net/http"

	"inventory-api/internal/logger"
	"inventory-api/internal/model"
	"inventory-api/internal/service"

	"go.opentelemetry.io/otel"
)

type AuthHandler struct {
	service *service.AuthService
}

var HttpAuthHandlerTracer = otel.Tracer("HttpAuthHandler")

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string         `json:"token"`
	User  *model.UserRef `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpAuthHandlerTracer.Start(r.Context(), "HttpAuthHandler.Register")
	defer span.End()
	logger.Info(ctx, "HttpAuthHandler")

	var creds credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, token, err := h.service.Register(ctx, creds.Username, creds.Password)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user.Ref()})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpAuthHandlerTracer.Start(r.Context(), "HttpAuthHandler.Login")
	defer span.End()
	logger.Info(ctx, "HttpAuthHandler")

	var creds credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, token, err := h.service.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user.Ref()})
}
