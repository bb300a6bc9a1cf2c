package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/services"
)

const maxAvatarForm = 6 << 20

type ProfileHandler struct {
	profileService *services.ProfileService
	ticketService  *services.TicketService
}

func NewProfileHandler(ps *services.ProfileService, ts *services.TicketService) *ProfileHandler {
	return &ProfileHandler{profileService: ps, ticketService: ts}
}

// GetOverview godoc
// @Summary Профиль и регистрации текущего пользователя
// @Tags profile
// @Produce json
// @Success 200 {object} services.ProfileOverview
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /me [get]
func (h *ProfileHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	overview, err := h.profileService.Overview(r.Context(), identity)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, overview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetProfile godoc
// @Summary Профиль текущего пользователя
// @Tags profile
// @Description При первом обращении профиль создается из данных провайдера идентификации.
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /me/profile [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	profile, err := h.profileService.Load(r.Context(), identity)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateProfile godoc
// @Summary Сохранить профиль
// @Tags profile
// @Description Непереданные поля не меняются.
// @Accept json
// @Produce json
// @Param body body models.ProfileFields true "Поля профиля"
// @Success 200 {object} models.Profile
// @Failure 400 {object} map[string]string "Некорректное тело запроса"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /me/profile [put]
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var fields models.ProfileFields
	if err := readJSON(w, r, &fields); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	session, err := h.profileService.Open(r.Context(), identity)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	session.Edit()
	session.Change(fields)
	profile, err := session.Save(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadAvatar godoc
// @Summary Загрузить аватар
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Изображение (jpeg, png, webp)"
// @Success 200 {object} map[string]string "URL аватара"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 422 {object} map[string]string "Недопустимый файл"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /me/profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	// Профиль должен существовать до записи URL
	if _, err := h.profileService.Load(r.Context(), identity); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarForm)
	if err := r.ParseMultipartForm(maxAvatarForm); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form or file too large"))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, errors.New("avatar field is required"))
		return
	}
	defer file.Close()

	url, err := h.profileService.UploadAvatar(r.Context(), identity.ID, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile_picture": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRegistrations godoc
// @Summary Регистрации текущего пользователя
// @Tags profile
// @Produce json
// @Success 200 {array} services.RegistrationSummary
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /me/registrations [get]
func (h *ProfileHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	regs, err := h.profileService.Registrations(r.Context(), identity.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": regs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTicket godoc
// @Summary Код билета для входа
// @Tags profile
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} services.Ticket
// @Failure 404 {object} map[string]string "Регистрация не найдена"
// @Failure 409 {object} map[string]string "Регистрация еще не подтверждена"
// @Security BearerAuth
// @Router /me/registrations/{eventID}/ticket [get]
func (h *ProfileHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	ticket, err := h.ticketService.Issue(r.Context(), identity, eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"ticket": ticket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
