package handlers

import (
	"net/http"

	"github.com/Dosada05/event-portal/services"
)

type CheckInHandler struct {
	ticketService *services.TicketService
}

func NewCheckInHandler(ts *services.TicketService) *CheckInHandler {
	return &CheckInHandler{ticketService: ts}
}

type checkInRequest struct {
	Code string `json:"code"`
}

// CheckIn godoc
// @Summary Отметить участника на входе
// @Tags checkin
// @Description Организатор передает код билета из QR.
// @Accept json
// @Produce json
// @Param body body checkInRequest true "Код билета"
// @Success 200 {object} services.CheckInResult
// @Failure 403 {object} map[string]string "Только для организаторов"
// @Failure 404 {object} map[string]string "Регистрация не найдена"
// @Failure 409 {object} map[string]string "Регистрация еще не подтверждена"
// @Failure 422 {object} map[string]string "Неверный код"
// @Security BearerAuth
// @Router /checkin [post]
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input checkInRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.ticketService.CheckIn(r.Context(), identity, input.Code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
