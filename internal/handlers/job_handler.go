package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobSvc,
	}
}

// Status returns the worker counters and the scheduled jobs
// @Summary Get background job status
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.GetStatus())
}

type SweepRequest struct {
	Sweep string `json:"sweep"`
	Day   string `json:"day"`
}

// RunSweep runs one sweep, or all of them, and waits for the counts.
// ?sweep= and ?day= take precedence over the body.
// @Summary Run billing sweep
// @Tags Jobs
// @Param sweep query string false "invoices, dues, expiring, collection_reminders or overdue"
// @Param day query string false "Reference day, YYYY-MM-DD"
// @Security BearerAuth
// @Router /jobs/sweeps [post]
func (h *JobHandler) RunSweep(c *gin.Context) {
	var req SweepRequest
	if err := BindNestedOrFlat(c, "sweep", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	if v := c.Query("sweep"); v != "" {
		req.Sweep = v
	}
	if v := c.Query("day"); v != "" {
		req.Day = v
	}

	var day time.Time
	if req.Day != "" {
		d, err := parseDateField("day", req.Day)
		if err != nil {
			respondError(c, err)
			return
		}
		day = d
	}

	results, err := h.jobService.RunSweep(c.Request.Context(), actorFrom(c), req.Sweep, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// TriggerDaily queues the daily run on the scheduler and returns at once
func (h *JobHandler) TriggerDaily(c *gin.Context) {
	if err := h.jobService.TriggerDaily(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Daily sweeps queued"})
}
