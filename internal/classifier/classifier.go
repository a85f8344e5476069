// Package classifier buckets jobs by urgency and answers per-user eligibility questions.
package classifier

import (
	"sort"

	"github.com/duaneandrea/digitalk-test/internal/domain"
)

// Classify returns the urgency bucket for a job
func Classify(job *domain.Job) domain.Category {
	if job.Immediate {
		return domain.CategoryEmergency
	}
	return domain.CategoryNormal
}

// PartitionAndSort splits jobs into emergency and normal buckets.
// Normal jobs are ordered by due time; emergency jobs keep their source order.
func PartitionAndSort(jobs []*domain.Job) (emergency, normal []*domain.Job) {
	emergency = make([]*domain.Job, 0)
	normal = make([]*domain.Job, 0)

	for _, job := range jobs {
		if Classify(job) == domain.CategoryEmergency {
			emergency = append(emergency, job)
		} else {
			normal = append(normal, job)
		}
	}

	sort.SliceStable(normal, func(i, j int) bool {
		return normal[i].Due.Before(normal[j].Due)
	})

	return emergency, normal
}

// CanAccept reports whether candidateID may take the job.
// A job held by someone else, or no longer pending, can't be accepted.
func CanAccept(job *domain.Job, candidateID int64) bool {
	if job.TranslatorID != nil && *job.TranslatorID != candidateID {
		return false
	}
	return job.Status == domain.StatusPending
}

// UserCheck reports whether user may still act on the job from a listing
func UserCheck(job *domain.Job, user *domain.User) bool {
	switch user.Role {
	case domain.RoleCustomer:
		return job.CustomerID == user.ID && !job.Status.IsTerminal()
	case domain.RoleTranslator:
		return CanAccept(job, user.ID) || (job.IsAssignedTo(user.ID) && !job.Status.IsTerminal())
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return !job.Status.IsTerminal()
	default:
		return false
	}
}
