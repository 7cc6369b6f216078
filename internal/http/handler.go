package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"task-manager.com/task-manager/internal/constants"
	dto "task-manager.com/task-manager/internal/data_models"
	apperrors "task-manager.com/task-manager/internal/errors"
	middleware "task-manager.com/task-manager/internal/http/middlewares"
	"task-manager.com/task-manager/internal/http/validators"
	model "task-manager.com/task-manager/internal/models"
	"task-manager.com/task-manager/internal/pagination"
	"task-manager.com/task-manager/internal/services"
)

const defaultUpcomingDays = 7

type Handler struct {
	mutations *services.TaskService
	queries   *services.TaskQueryService
}

func NewHandler(mutations *services.TaskService, queries *services.TaskQueryService) *Handler {
	return &Handler{
		mutations: mutations,
		queries:   queries,
	}
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req dto.TaskRequestData
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	draft, err := newTaskDraft(&req)
	if err != nil {
		return err
	}

	task, err := h.mutations.Create(c.Request().Context(), draft, middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, dto.NewTaskResponse(*task))
}

func (h *Handler) GetTask(c echo.Context) error {
	task, err := h.queries.Get(c.Request().Context(), c.Param("taskId"), middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.NewTaskResponse(*task))
}

func (h *Handler) UpdateTask(c echo.Context) error {
	var req dto.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	patch, err := newTaskPatch(&req)
	if err != nil {
		return err
	}

	task, err := h.mutations.Update(c.Request().Context(), c.Param("taskId"), patch, middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.NewTaskResponse(*task))
}

func (h *Handler) DeleteTask(c echo.Context) error {
	if err := h.mutations.Delete(c.Request().Context(), c.Param("taskId"), middleware.UserID(c)); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ChangeState(c echo.Context) error {
	var req dto.ChangeStateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	state, err := validators.ParseState(req.State)
	if err != nil {
		return err
	}

	task, err := h.mutations.ChangeState(c.Request().Context(), c.Param("taskId"), state, middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.NewTaskResponse(*task))
}

func (h *Handler) FilterTasks(c echo.Context) error {
	var req dto.FilterTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	criteria, err := newTaskCriteria(&req)
	if err != nil {
		return err
	}

	pageReq, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.queries.Filter(c.Request().Context(), criteria, middleware.UserID(c), pageReq)
	return respondPage(c, page, err)
}

func (h *Handler) ListTasks(c echo.Context) error {
	pageReq, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.queries.ListByWorkspace(c.Request().Context(), c.Param("workspaceId"), middleware.UserID(c), pageReq)
	return respondPage(c, page, err)
}

func (h *Handler) ListAllTasks(c echo.Context) error {
	tasks, err := h.queries.ListAll(c.Request().Context(), c.Param("workspaceId"), middleware.UserID(c))
	return respondList(c, tasks, err)
}

func (h *Handler) WeeklyView(c echo.Context) error {
	start, err := validators.ParseDate("start", c.QueryParam("start"))
	if err != nil {
		return err
	}

	pageReq, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.queries.WeeklyView(c.Request().Context(), c.Param("workspaceId"), start, middleware.UserID(c), memberFilter(c), pageReq)
	return respondPage(c, page, err)
}

func (h *Handler) WeeklyList(c echo.Context) error {
	start, err := validators.ParseDate("start", c.QueryParam("start"))
	if err != nil {
		return err
	}

	tasks, err := h.queries.WeeklyList(c.Request().Context(), c.Param("workspaceId"), start, middleware.UserID(c), memberFilter(c))
	return respondList(c, tasks, err)
}

func (h *Handler) DailyView(c echo.Context) error {
	date, err := validators.ParseDate("date", c.QueryParam("date"))
	if err != nil {
		return err
	}

	pageReq, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.queries.DailyView(c.Request().Context(), c.Param("workspaceId"), date, middleware.UserID(c), memberFilter(c), pageReq)
	return respondPage(c, page, err)
}

func (h *Handler) DailyList(c echo.Context) error {
	date, err := validators.ParseDate("date", c.QueryParam("date"))
	if err != nil {
		return err
	}

	tasks, err := h.queries.DailyList(c.Request().Context(), c.Param("workspaceId"), date, middleware.UserID(c), memberFilter(c))
	return respondList(c, tasks, err)
}

func (h *Handler) KanbanView(c echo.Context) error {
	board, err := h.queries.KanbanView(c.Request().Context(), c.Param("workspaceId"), middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	resp := make(map[constants.TaskState][]dto.TaskResponse, len(board))
	for state, tasks := range board {
		resp[state] = dto.NewTaskResponses(tasks)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) SearchTasks(c echo.Context) error {
	pageReq, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.queries.Search(c.Request().Context(), c.Param("workspaceId"), c.QueryParam("q"), middleware.UserID(c), pageReq)
	return respondPage(c, page, err)
}

func (h *Handler) TasksByUser(c echo.Context) error {
	pageReq, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.queries.ByUser(c.Request().Context(), c.Param("workspaceId"), c.Param("targetUserId"), middleware.UserID(c), pageReq)
	return respondPage(c, page, err)
}

func (h *Handler) TasksByState(c echo.Context) error {
	state, err := validators.ParseState(c.Param("state"))
	if err != nil {
		return err
	}

	pageReq, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.queries.ByState(c.Request().Context(), c.Param("workspaceId"), state, middleware.UserID(c), pageReq)
	return respondPage(c, page, err)
}

func (h *Handler) UpcomingTasks(c echo.Context) error {
	days := defaultUpcomingDays
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be an integer")
		}
		days = n
	}

	pageReq, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.queries.Upcoming(c.Request().Context(), c.Param("workspaceId"), days, middleware.UserID(c), pageReq)
	return respondPage(c, page, err)
}

func (h *Handler) OverdueTasks(c echo.Context) error {
	pageReq, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.queries.Overdue(c.Request().Context(), c.Param("workspaceId"), middleware.UserID(c), pageReq)
	return respondPage(c, page, err)
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.queries.Statistics(c.Request().Context(), c.Param("workspaceId"), middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) DayLoad(c echo.Context) error {
	from, err := validators.ParseDate("from", c.QueryParam("from"))
	if err != nil {
		return err
	}
	to, err := validators.ParseDate("to", c.QueryParam("to"))
	if err != nil {
		return err
	}

	counts, err := h.queries.DayLoad(c.Request().Context(), c.Param("workspaceId"), from, to, middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	resp := make([]dto.DayCountResponse, 0, len(counts))
	for _, dc := range counts {
		resp = append(resp, dto.DayCountResponse{Day: dc.Day.Format(time.DateOnly), Count: dc.Count})
	}
	return c.JSON(http.StatusOK, resp)
}

// pageRequest reads page, size, sortBy and direction from the query string.
func pageRequest(c echo.Context) (pagination.Request, error) {
	req := pagination.Request{
		SortBy:    c.QueryParam("sortBy"),
		Direction: c.QueryParam("direction"),
	}

	for name, dst := range map[string]**int{"page": &req.Page, "size": &req.Size} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return pagination.Request{}, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
		}
		*dst = &n
	}

	return req, nil
}

func memberFilter(c echo.Context) constants.MemberFilter {
	return constants.ParseMemberFilter(c.QueryParam("filter"))
}

func respondPage(c echo.Context, page pagination.Page[model.Task], err error) error {
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.Map(page, dto.NewTaskResponse))
}

func respondList(c echo.Context, tasks []model.Task, err error) error {
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewTaskResponses(tasks))
}

// httpError maps domain exceptions onto their status. Anything else is logged
// and hidden behind a 500.
func httpError(err error) error {
	status := apperrors.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		return echo.NewHTTPError(status, "internal server error")
	}

	body := echo.Map{
		"message": err.Error(),
		"kind":    apperrors.KindOf(err),
	}

	var appErr *apperrors.Exception
	if errors.As(err, &appErr) && appErr.Reason != "" {
		body["reason"] = appErr.Reason
	}
	return echo.NewHTTPError(status, body)
}
