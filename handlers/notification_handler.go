package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/event-portal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(ns *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

// ListNotifications godoc
// @Summary Уведомления текущего пользователя
// @Tags notifications
// @Produce json
// @Success 200 {array} models.Notification
// @Security BearerAuth
// @Router /me/notifications [get]
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	list, err := h.notificationService.List(r.Context(), identity.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"notifications": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MarkRead godoc
// @Summary Отметить уведомление прочитанным
// @Tags notifications
// @Param notificationID path string true "Notification ID (uuid)"
// @Success 204
// @Failure 404 {object} map[string]string "Уведомление не найдено"
// @Failure 422 {object} map[string]string "Некорректный ID"
// @Security BearerAuth
// @Router /me/notifications/{notificationID}/read [post]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), identity.ID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
