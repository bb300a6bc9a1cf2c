package handlers

import (
	"net/http"

	"github.com/Dosada05/event-portal/services"
)

type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(es *services.EventService) *EventHandler {
	return &EventHandler{eventService: es}
}

// ListEvents godoc
// @Summary Список активных событий
// @Tags events
// @Description Активные события по дате. Поиск по подстроке в названии или типе, вкладки online/offline.
// @Produce json
// @Param q query string false "Поисковая строка"
// @Param tab query string false "all | online | offline"
// @Success 200 {object} services.EventCatalogue
// @Failure 422 {object} map[string]string "Неизвестная вкладка"
// @Router /events [get]
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	tab, err := services.ParseEventTab(r.URL.Query().Get("tab"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	catalogue, err := h.eventService.Search(r.Context(), r.URL.Query().Get("q"), tab)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, catalogue, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetEvent godoc
// @Summary Детали события
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} services.EventDetail
// @Failure 400 {object} map[string]string "Некорректный ID"
// @Failure 404 {object} map[string]string "Событие не найдено"
// @Router /events/{eventID} [get]
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.eventService.Detail(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": detail}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
