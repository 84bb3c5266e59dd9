package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/soaringjerry/Brightpath/internal/middleware"
	"github.com/soaringjerry/Brightpath/internal/services"
	"github.com/soaringjerry/Brightpath/internal/utils"
)

const maxBodyBytes = 1 << 20

type Router struct {
	store Store
	log   *zap.Logger

	templates    *services.TemplateService
	assessments  *services.AssessmentService
	exports      *services.ExportService
	analytics    *services.AnalyticsService
	appointments *services.AppointmentService
	careTeam     *services.CareTeamService
	children     *services.ChildService
	auth         *services.AuthService
	pros         *services.ProfessionalDirectory
}

// Options wires the router's collaborators. Nil fields get defaults: the
// builtin catalog, the three builtin professionals and no notifications.
type Options struct {
	Store         Store
	Templates     services.TemplateRepository
	Professionals *services.ProfessionalDirectory
	Notifier      services.Notifier
	Signer        services.TokenSigner
	Logger        *zap.Logger
}

func NewRouter(opts Options) (*Router, error) {
	if opts.Store == nil {
		opts.Store = newMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Templates == nil {
		repo, err := services.NewStaticTemplateRepository()
		if err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
		opts.Templates = repo
	}
	if opts.Professionals == nil {
		opts.Professionals = services.DefaultProfessionals()
	}
	if opts.Signer == nil {
		return nil, errors.New("token signer required")
	}
	templates := services.NewTemplateService(opts.Templates)
	return &Router{
		store:        opts.Store,
		log:          opts.Logger,
		templates:    templates,
		assessments:  services.NewAssessmentService(templates, opts.Store, opts.Logger.Named("assessments")),
		exports:      services.NewExportService(opts.Store, templates),
		analytics:    services.NewAnalyticsService(opts.Store, templates),
		appointments: services.NewAppointmentService(opts.Store, opts.Professionals, opts.Store, opts.Notifier, opts.Logger.Named("appointments")),
		careTeam:     services.NewCareTeamService(opts.Store),
		children:     services.NewChildService(opts.Store),
		auth:         services.NewAuthService(opts.Store, opts.Signer),
		pros:         opts.Professionals,
	}, nil
}

func (rt *Router) Register(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	staff := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireRole(services.RoleProfessional, services.RoleEducator)(h)
	}

	mux.HandleFunc("POST /api/auth/register", rt.handleRegister)
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)

	mux.HandleFunc("GET /api/templates", rt.handleListTemplates)
	mux.HandleFunc("GET /api/templates/{id}", rt.handleGetTemplate)
	mux.HandleFunc("GET /api/templates/{id}/steps", rt.handleTemplateSteps)
	mux.Handle("GET /api/templates/{id}/questions.csv", staff(rt.handleQuestionsCSV))

	mux.HandleFunc("POST /api/assessments/preview", rt.handlePreview)
	mux.Handle("POST /api/assessments", authed(rt.handleSubmit))
	mux.Handle("GET /api/assessments/{id}", authed(rt.handleGetResult))
	mux.Handle("GET /api/assessments/{id}/report", authed(rt.handleReport))
	mux.Handle("POST /api/children", authed(rt.handleAddChild))
	mux.Handle("GET /api/children", authed(rt.handleListChildren))
	mux.Handle("GET /api/children/{childID}", authed(rt.handleGetChild))
	mux.Handle("PUT /api/children/{childID}", authed(rt.handleUpdateChild))
	mux.Handle("GET /api/children/{childID}/assessments", authed(rt.handleChildResults))

	mux.Handle("GET /api/children/{childID}/appointments", authed(rt.handleListAppointments))
	mux.Handle("POST /api/children/{childID}/appointments", authed(rt.handleSchedule))
	mux.Handle("PUT /api/children/{childID}/appointments/{id}", authed(rt.handleReschedule))
	mux.Handle("DELETE /api/children/{childID}/appointments/{id}", authed(rt.handleCancel))

	mux.Handle("GET /api/children/{childID}/team", authed(rt.handleListTeam))
	mux.Handle("POST /api/children/{childID}/team", authed(rt.handleAddTeamMember))
	mux.Handle("DELETE /api/children/{childID}/team", authed(rt.handleRemoveTeamMember))

	mux.HandleFunc("GET /api/professionals", rt.handleListProfessionals)
	mux.HandleFunc("GET /api/professionals/{id}/slots", rt.handleSlots)

	mux.Handle("GET /api/analytics/templates/{id}", staff(rt.handleAnalytics))
	mux.Handle("GET /api/export", staff(rt.handleExport))
	mux.Handle("GET /api/audit", middleware.RequireRole(services.RoleProfessional)(http.HandlerFunc(rt.handleAudit)))
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Missing []string `json:"missing,omitempty"`
}

var statusByCode = map[services.ErrorCode]int{
	services.ErrorInvalid:      http.StatusBadRequest,
	services.ErrorNotFound:     http.StatusNotFound,
	services.ErrorForbidden:    http.StatusForbidden,
	services.ErrorUnauthorized: http.StatusUnauthorized,
	services.ErrorConflict:     http.StatusConflict,
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ie, ok := services.AsIncomplete(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   utils.T(middleware.LocaleFromContext(r.Context()), "error.incomplete"),
			Code:    "incomplete",
			Missing: ie.Missing,
		})
		return
	}
	if se, ok := services.AsServiceError(err); ok {
		status, known := statusByCode[se.Code]
		if !known {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorBody{Error: se.Message, Code: string(se.Code)})
		return
	}
	rt.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return services.NewInvalidError("invalid request body: " + err.Error())
	}
	return nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, services.NewInvalidError(name + " must be a positive integer")
	}
	return n, nil
}

// childFromPath resolves {childID} to a stored child: 400 when malformed, 404
// when unknown.
func (rt *Router) childFromPath(r *http.Request) (int64, error) {
	id, err := pathInt64(r, "childID")
	if err != nil {
		return 0, err
	}
	if _, err := rt.children.Get(id); err != nil {
		return 0, err
	}
	return id, nil
}

func actor(r *http.Request) *middleware.Claims {
	c, _ := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		return &middleware.Claims{}
	}
	return c
}

// localizeRisk swaps the display strings for the request locale.
func localizeRisk(r *http.Request, lvl services.RiskLevel) services.RiskLevel {
	loc := middleware.LocaleFromContext(r.Context())
	key := "risk." + string(lvl.Tier)
	lvl.Label = utils.T(loc, key)
	lvl.Description = utils.T(loc, key+".desc")
	return lvl
}

type resultView struct {
	*services.AssessmentResult
	Categories []services.CategoryScore `json:"categories"`
	Risk       services.RiskLevel       `json:"risk"`
}

func (rt *Router) viewResult(r *http.Request, res *services.AssessmentResult) resultView {
	lvl, ok := services.LevelForTier(res.RiskTier)
	if !ok {
		lvl = services.Classify(res.OverallScore)
	}
	cats := res.OrderedCategoryScores()
	if cats == nil {
		cats = []services.CategoryScore{}
	}
	return resultView{AssessmentResult: res, Categories: cats, Risk: localizeRisk(r, lvl)}
}

type childView struct {
	*services.Child
	FullName string `json:"full_name"`
}

func writeDownload(w http.ResponseWriter, res *services.ExportResult) {
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// --- auth ---

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		Role        string `json:"role"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.Register(services.RegisterRequest{
		Email: req.Email, Password: req.Password, Role: services.Role(req.Role), DisplayName: req.DisplayName,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- templates ---

func (rt *Router) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": rt.templates.ListTemplates()})
}

func (rt *Router) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := rt.templates.GetTemplate(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (rt *Router) handleTemplateSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := rt.templates.Steps(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

func (rt *Router) handleQuestionsCSV(w http.ResponseWriter, r *http.Request) {
	res, err := rt.templates.ExportQuestionsCSV(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeDownload(w, res)
}

// --- assessments ---

type answersBody struct {
	TemplateID string             `json:"template_id"`
	ChildID    int64              `json:"child_id"`
	Answers    services.AnswerSet `json:"answers"`
}

func (rt *Router) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req answersBody
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	ev, err := rt.assessments.Preview(req.TemplateID, req.Answers)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	ev.Risk = localizeRisk(r, ev.Risk)
	writeJSON(w, http.StatusOK, ev)
}

func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req answersBody
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if _, err := rt.children.Get(req.ChildID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.assessments.SubmitAssessment(services.SubmitRequest{
		TemplateID:  req.TemplateID,
		ChildID:     req.ChildID,
		Answers:     req.Answers,
		SubmittedBy: actor(r).UID,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt.viewResult(r, res))
}

func (rt *Router) handleGetResult(w http.ResponseWriter, r *http.Request) {
	res, err := rt.assessments.GetResult(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.viewResult(r, res))
}

func (rt *Router) handleReport(w http.ResponseWriter, r *http.Request) {
	res, err := rt.exports.ExportReport(services.ReportParams{
		ResultID: r.PathValue("id"),
		Format:   r.URL.Query().Get("format"),
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeDownload(w, res)
}

func (rt *Router) handleChildResults(w http.ResponseWriter, r *http.Request) {
	childID, err := rt.childFromPath(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	list, err := rt.assessments.ListChildResults(childID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	out := make([]resultView, 0, len(list))
	for _, res := range list {
		out = append(out, rt.viewResult(r, res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"child_id": childID, "results": out})
}

// --- children ---

func (rt *Router) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var req services.ChildRequest
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	c, err := rt.children.Add(req, actor(r).UID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, childView{Child: c, FullName: c.FullName()})
}

func (rt *Router) handleListChildren(w http.ResponseWriter, r *http.Request) {
	list, err := rt.children.ListForParent(actor(r).UID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	out := make([]childView, 0, len(list))
	for i := range list {
		out = append(out, childView{Child: &list[i], FullName: list[i].FullName()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"children": out})
}

func (rt *Router) handleGetChild(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "childID")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	c, err := rt.children.Get(id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, childView{Child: c, FullName: c.FullName()})
}

func (rt *Router) handleUpdateChild(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "childID")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var req services.ChildRequest
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	c := actor(r)
	child, err := rt.children.Update(id, req, c.UID, c.Role)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, childView{Child: child, FullName: child.FullName()})
}

// --- appointments ---

func (rt *Router) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	childID, err := rt.childFromPath(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	list, err := rt.appointments.List(r.Context(), childID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"child_id": childID, "appointments": list})
}

func (rt *Router) handleSchedule(w http.ResponseWriter, r *http.Request) {
	childID, err := rt.childFromPath(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var req services.ScheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	c := actor(r)
	if req.Notify == "email" {
		req.Recipient = c.Email
	}
	appt, err := rt.appointments.Schedule(r.Context(), childID, req, c.UID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (rt *Router) handleReschedule(w http.ResponseWriter, r *http.Request) {
	childID, err := rt.childFromPath(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var req services.RescheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	c := actor(r)
	if req.Notify == "email" {
		req.Recipient = c.Email
	}
	appt, err := rt.appointments.Reschedule(r.Context(), childID, id, req, c.UID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (rt *Router) handleCancel(w http.ResponseWriter, r *http.Request) {
	childID, err := rt.childFromPath(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.appointments.Cancel(r.Context(), childID, id, actor(r).UID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- care team ---

func (rt *Router) handleListTeam(w http.ResponseWriter, r *http.Request) {
	childID, err := rt.childFromPath(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	list, err := rt.careTeam.List(childID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"child_id": childID, "members": list})
}

func (rt *Router) handleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	childID, err := rt.childFromPath(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	m, err := rt.careTeam.AddMember(services.AddMemberRequest{ChildID: childID, Email: req.Email, Role: services.Role(req.Role)}, actor(r).UID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (rt *Router) handleRemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	childID, err := rt.childFromPath(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		rt.writeError(w, r, services.NewInvalidError("user_id required"))
		return
	}
	if err := rt.careTeam.RemoveMember(childID, userID, actor(r).UID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- professionals ---

func (rt *Router) handleListProfessionals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"professionals": rt.pros.List(), "time_slots": services.TimeSlots()})
}

func (rt *Router) handleSlots(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, services.NewInvalidError("id must be an integer"))
		return
	}
	date := r.URL.Query().Get("date")
	slots, err := rt.appointments.AvailableSlots(id, date)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"professional_id": id, "date": date, "slots": slots})
}

// --- staff ---

func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sum, err := rt.analytics.Summary(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := rt.exports.ExportResultsCSV(services.ExportParams{TemplateID: q.Get("template_id"), Format: q.Get("format")})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeDownload(w, res)
}

func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			rt.writeError(w, r, services.NewInvalidError("limit must be a positive integer"))
			return
		}
		limit = n
	}
	entries, err := rt.store.ListAudit(limit)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
