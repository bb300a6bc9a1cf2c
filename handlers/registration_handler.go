package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/event-portal/middleware"
	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/services"
)

const maxSubmissionForm = 64 << 20

// StatePublisher доставляет состояние регистрации во все открытые вкладки пользователя.
type StatePublisher interface {
	PublishRegistrationState(userID string, state services.RegistrationState)
}

type RegistrationHandler struct {
	eventService        *services.EventService
	registrationService *services.RegistrationService
	submissionService   *services.SubmissionService
	publisher           StatePublisher
	logger              *slog.Logger
}

func NewRegistrationHandler(
	es *services.EventService,
	rs *services.RegistrationService,
	ss *services.SubmissionService,
	publisher StatePublisher,
	logger *slog.Logger,
) *RegistrationHandler {
	return &RegistrationHandler{
		eventService:        es,
		registrationService: rs,
		submissionService:   ss,
		publisher:           publisher,
		logger:              logger,
	}
}

func (h *RegistrationHandler) workflow(w http.ResponseWriter, r *http.Request) (*services.RegistrationWorkflow, *models.Identity, bool) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return nil, nil, false
	}
	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return nil, nil, false
	}

	var identity *models.Identity
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		identity = &id
	}
	return h.registrationService.NewWorkflow(event, identity), identity, true
}

// GetRegistrationState godoc
// @Summary Состояние регистрации на событие
// @Tags registrations
// @Description Для гостя - приглашение войти, для пользователя - форма или текущий статус.
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} services.RegistrationState
// @Failure 404 {object} map[string]string "Событие не найдено"
// @Security BearerAuth
// @Router /events/{eventID}/registration [get]
func (h *RegistrationHandler) GetRegistrationState(w http.ResponseWriter, r *http.Request) {
	wf, _, ok := h.workflow(w, r)
	if !ok {
		return
	}

	// При недоступном хранилище автомат уже показывает форму, ошибка только логируется.
	state, err := wf.Init(r.Context())
	if err != nil {
		h.logger.Warn("registration state degraded", slog.String("path", r.URL.Path), slog.Any("error", err))
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Register godoc
// @Summary Зарегистрироваться на событие
// @Tags registrations
// @Description Индивидуальная или командная регистрация. Повторная отправка возвращает существующую регистрацию.
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body services.RegistrationForm true "Профиль и состав команды"
// @Success 201 {object} services.RegistrationState "Регистрация создана"
// @Success 200 {object} services.RegistrationState "Уже зарегистрирован"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Регистрация закрыта / дедлайн прошел"
// @Failure 409 {object} map[string]string "Мест нет"
// @Failure 422 {object} map[string]string "Ошибка состава команды"
// @Failure 429 {object} map[string]string "Слишком много запросов"
// @Security BearerAuth
// @Router /events/{eventID}/registration [post]
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var form services.RegistrationForm
	if err := readJSON(w, r, &form); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	wf, identity, ok := h.workflow(w, r)
	if !ok {
		return
	}
	if identity == nil {
		unauthorizedResponse(w, r, services.ErrSignInRequired.Error())
		return
	}

	before := false
	if st, err := wf.Init(r.Context()); err == nil && st.Phase == services.PhaseRegistered {
		before = true
	}

	if h.publisher != nil {
		unsubscribe := wf.Subscribe(func(st services.RegistrationState) {
			h.publisher.PublishRegistrationState(identity.ID, st)
		})
		defer unsubscribe()
	}

	state, err := wf.Submit(r.Context(), form)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("registration submit failed", slog.String("user_id", identity.ID), slog.Any("error", err))
		}
		env := jsonResponse{"error": serviceErrorMessage(err), "registration": state}
		if err := writeJSON(w, status, env, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	status := http.StatusCreated
	if before {
		status = http.StatusOK
	}
	if err := writeJSON(w, status, jsonResponse{"registration": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitDeliverable godoc
// @Summary Загрузить работу участника
// @Tags registrations
// @Description Доступно подтвержденным участникам, регистрация переходит в статус submitted.
// @Accept multipart/form-data
// @Produce json
// @Param eventID path int true "Event ID"
// @Param file formData file true "Файл работы"
// @Success 200 {object} models.Registration
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 404 {object} map[string]string "Регистрация не найдена"
// @Failure 409 {object} map[string]string "Статус не позволяет загрузку"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /events/{eventID}/registration/submission [post]
func (h *RegistrationHandler) SubmitDeliverable(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionForm)
	if err := r.ParseMultipartForm(maxSubmissionForm); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form or file too large"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errors.New("file field is required"))
		return
	}
	defer file.Close()

	reg, err := h.submissionService.Submit(r.Context(), identity, eventID, services.SubmissionUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
