package dto

import (
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
)

// Values accepted for the immediate flag
const (
	ImmediateYes = "yes"
	ImmediateNo  = "no"
)

type CreateJobRequest struct {
	FromLanguageID int64  `json:"from_language_id"`
	Immediate      string `json:"immediate"`
	DueDate        string `json:"due_date"`
	DueTime        string `json:"due_time"`
	Duration       int    `json:"duration"`
}

type UpdateJobRequest struct {
	FromLanguageID *int64  `json:"from_language_id"`
	Immediate      *string `json:"immediate"`
	DueDate        *string `json:"due_date"`
	DueTime        *string `json:"due_time"`
	Duration       *int    `json:"duration"`
}

type ListJobsRequest struct {
	UserID     int64  `form:"user_id"`
	CustomerID int64  `form:"customer_id"`
	Status     string `form:"status"`
	Order      string `form:"order"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

type HistoryRequest struct {
	Page int `form:"page"`
}

type DistanceFeedRequest struct {
	JobID    string   `json:"job_id" binding:"required"`
	Distance *float64 `json:"distance" binding:"required"`
}

type JobDTO struct {
	ID             string        `json:"id"`
	CustomerID     int64         `json:"customer_id"`
	TranslatorID   *int64        `json:"translator_id"`
	FromLanguageID int64         `json:"from_language_id"`
	Immediate      string        `json:"immediate"`
	Due            string        `json:"due"`
	WillExpireAt   string        `json:"will_expire_at"`
	Duration       int           `json:"duration,omitempty"`
	Status         domain.Status `json:"status"`
	CreatedAt      string        `json:"created_at"`
	UpdatedAt      string        `json:"updated_at"`
}

type ListedJobDTO struct {
	JobDTO
	UserCheck bool `json:"usercheck"`
}

type UserDTO struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type ListingResponse struct {
	EmergencyJobs []JobDTO       `json:"emergency_jobs"`
	NormalJobs    []ListedJobDTO `json:"normal_jobs"`
	User          UserDTO        `json:"user"`
	UserType      domain.Role    `json:"user_type"`
}

type ListJobsResponse struct {
	Jobs  []JobDTO `json:"jobs"`
	Total int      `json:"total"`
	Page  int      `json:"page"`
}

type HistoryResponse struct {
	Jobs     []JobDTO    `json:"jobs"`
	User     UserDTO     `json:"user"`
	UserType domain.Role `json:"user_type"`
	Total    int         `json:"total"`
	NumPages int         `json:"num_pages"`
	Page     int         `json:"page"`
}

type JobDetailResponse struct {
	Job      JobDTO       `json:"job"`
	Distance *DistanceDTO `json:"distance,omitempty"`
}

type DistanceDTO struct {
	JobID     string  `json:"job_id"`
	Distance  float64 `json:"distance"`
	UpdatedAt string  `json:"updated_at"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	FieldName string `json:"field_name,omitempty"`
}

// ParseImmediate maps the yes/no wire flag; empty means a scheduled job
func ParseImmediate(v string) (bool, bool) {
	switch v {
	case ImmediateYes:
		return true, true
	case ImmediateNo, "":
		return false, true
	default:
		return false, false
	}
}

func FormatImmediate(immediate bool) string {
	if immediate {
		return ImmediateYes
	}
	return ImmediateNo
}

func FromJob(job *domain.Job) JobDTO {
	return JobDTO{
		ID:             job.ID,
		CustomerID:     job.CustomerID,
		TranslatorID:   job.TranslatorID,
		FromLanguageID: job.FromLanguageID,
		Immediate:      FormatImmediate(job.Immediate),
		Due:            job.Due.Format(time.RFC3339),
		WillExpireAt:   job.ExpiresAt.Format(time.RFC3339),
		Duration:       job.Duration,
		Status:         job.Status,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
	}
}

func FromJobs(jobs []*domain.Job) []JobDTO {
	out := make([]JobDTO, len(jobs))
	for i, job := range jobs {
		out[i] = FromJob(job)
	}
	return out
}

func FromUser(u *domain.User) UserDTO {
	return UserDTO{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func FromListing(l *engine.Listing) ListingResponse {
	normal := make([]ListedJobDTO, len(l.NormalJobs))
	for i, j := range l.NormalJobs {
		normal[i] = ListedJobDTO{JobDTO: FromJob(j.Job), UserCheck: j.UserCheck}
	}

	return ListingResponse{
		EmergencyJobs: FromJobs(l.EmergencyJobs),
		NormalJobs:    normal,
		User:          FromUser(l.User),
		UserType:      l.Role,
	}
}

func FromHistory(h *engine.HistoryPage) HistoryResponse {
	return HistoryResponse{
		Jobs:     FromJobs(h.Jobs),
		User:     FromUser(h.User),
		UserType: h.Role,
		Total:    h.Total,
		NumPages: h.NumPages,
		Page:     h.Page,
	}
}

func FromDistance(d *domain.Distance) *DistanceDTO {
	if d == nil {
		return nil
	}
	return &DistanceDTO{
		JobID:     d.JobID,
		Distance:  d.Distance,
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
	}
}
