// Package businessflow contains the core business logic for the recommendation lifecycle
package businessflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/hotelops/tarifario/app/dto"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	"github.com/hotelops/tarifario/utils"
	"gorm.io/gorm"
)

// RecommendationFlow drives the approval state machine:
// pending -> approved -> exported, pending -> rejected.
type RecommendationFlow interface {
	Approve(ctx context.Context, req *dto.ApproveRecommendationRequest, metadata *ClientMetadata) (*dto.DecisionResponse, error)
	Reject(ctx context.Context, req *dto.RejectRecommendationRequest, metadata *ClientMetadata) (*dto.DecisionResponse, error)
	Export(ctx context.Context, req *dto.ExportRecommendationRequest, metadata *ClientMetadata) (*dto.DecisionResponse, error)
	List(ctx context.Context, req *dto.ListRecommendationsRequest) (*dto.ListRecommendationsResponse, error)
}

// RecommendationFlowImpl implements the recommendation business flow
type RecommendationFlowImpl struct {
	recommendationRepo repository.RecommendationRepository
	db                 *gorm.DB
}

// NewRecommendationFlow creates a new recommendation flow instance
func NewRecommendationFlow(
	recommendationRepo repository.RecommendationRepository,
	db *gorm.DB,
) RecommendationFlow {
	return &RecommendationFlowImpl{
		recommendationRepo: recommendationRepo,
		db:                 db,
	}
}

// Approve moves a pending recommendation to approved, recording the decider.
// Concurrent decisions serialize on a row lock; exactly one wins.
func (s *RecommendationFlowImpl) Approve(ctx context.Context, req *dto.ApproveRecommendationRequest, metadata *ClientMetadata) (*dto.DecisionResponse, error) {
	if req.DecidedBy == "" {
		return nil, NewBusinessError("RECOMMENDATION_DECIDER_REQUIRED", "Missing decider identity", ErrDecidedByRequired)
	}
	if req.ApprovedRate != nil && *req.ApprovedRate <= 0 {
		return nil, NewBusinessError("RECOMMENDATION_RATE_INVALID", "Invalid approved rate", ErrApprovedRateInvalid)
	}

	updated, err := s.transition(ctx, req.UUID, models.RecommendationStatusApproved, func(rec *models.Recommendation) {
		rec.DecidedBy = &req.DecidedBy
		rec.DecidedAt = utils.UTCNowPtr()
		if req.ApprovedRate != nil {
			rec.ApprovedRate = req.ApprovedRate
		} else {
			rec.ApprovedRate = utils.ToPtr(rec.RecommendedRate)
		}
	})
	if err != nil {
		return nil, err
	}

	return &dto.DecisionResponse{
		Message:        "Recommendation approved",
		Recommendation: ToRecommendationDTO(*updated),
	}, nil
}

// Reject moves a pending recommendation to the terminal rejected state.
func (s *RecommendationFlowImpl) Reject(ctx context.Context, req *dto.RejectRecommendationRequest, metadata *ClientMetadata) (*dto.DecisionResponse, error) {
	if req.DecidedBy == "" {
		return nil, NewBusinessError("RECOMMENDATION_DECIDER_REQUIRED", "Missing decider identity", ErrDecidedByRequired)
	}
	if req.Reason == "" {
		return nil, NewBusinessError("RECOMMENDATION_REASON_REQUIRED", "Missing reject reason", ErrRejectReasonRequired)
	}

	updated, err := s.transition(ctx, req.UUID, models.RecommendationStatusRejected, func(rec *models.Recommendation) {
		rec.DecidedBy = &req.DecidedBy
		rec.DecidedAt = utils.UTCNowPtr()
		rec.RejectReason = &req.Reason
	})
	if err != nil {
		return nil, err
	}

	return &dto.DecisionResponse{
		Message:        "Recommendation rejected",
		Recommendation: ToRecommendationDTO(*updated),
	}, nil
}

// Export moves an approved recommendation to exported. Exporting an already
// exported record is a no-op returning the same record, so retries never
// double-apply.
func (s *RecommendationFlowImpl) Export(ctx context.Context, req *dto.ExportRecommendationRequest, metadata *ClientMetadata) (*dto.DecisionResponse, error) {
	id, err := uuid.Parse(req.UUID)
	if err != nil {
		return nil, NewBusinessError("RECOMMENDATION_UUID_INVALID", "Invalid recommendation UUID", err)
	}

	var updated *models.Recommendation
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		rec, err := s.lockByUUID(txCtx, id)
		if err != nil {
			return err
		}

		if rec.Status == models.RecommendationStatusExported {
			updated = rec
			return nil
		}
		if !rec.CanTransitionTo(models.RecommendationStatusExported) {
			return &InvalidStateTransitionError{
				RecommendationID: rec.ID,
				From:             rec.Status.String(),
				To:               models.RecommendationStatusExported.String(),
			}
		}

		rec.Status = models.RecommendationStatusExported
		rec.ExportedAt = utils.UTCNowPtr()
		if err := s.recommendationRepo.Update(txCtx, rec); err != nil {
			return NewBusinessError("RECOMMENDATION_UPDATE_FAILED", "Failed to update recommendation", err)
		}

		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.DecisionResponse{
		Message:        "Recommendation exported",
		Recommendation: ToRecommendationDTO(*updated),
	}, nil
}

// List returns recommendations matching the range and status filter.
func (s *RecommendationFlowImpl) List(ctx context.Context, req *dto.ListRecommendationsRequest) (*dto.ListRecommendationsResponse, error) {
	filter := models.RecommendationFilter{}

	if req.From != "" {
		from, err := utils.ParseDate(req.From)
		if err != nil {
			return nil, NewBusinessError("RECOMMENDATION_RANGE_INVALID", "Invalid from date", err)
		}
		filter.DateFrom = &from
	}
	if req.To != "" {
		to, err := utils.ParseDate(req.To)
		if err != nil {
			return nil, NewBusinessError("RECOMMENDATION_RANGE_INVALID", "Invalid to date", err)
		}
		filter.DateTo = &to
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, NewBusinessError("RECOMMENDATION_RANGE_INVALID", "Invalid date range", ErrStartDateAfterEndDate)
	}
	if req.Status != "" {
		status := models.RecommendationStatus(req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("RECOMMENDATION_STATUS_INVALID", "Invalid status filter", nil)
		}
		filter.Status = &status
	}
	if req.RoomCategory != "" {
		filter.RoomCategory = &req.RoomCategory
	}
	if req.Channel != "" {
		filter.Channel = &req.Channel
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	total, err := s.recommendationRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("RECOMMENDATION_COUNT_FAILED", "Failed to count recommendations", err)
	}

	recs, err := s.recommendationRepo.ByFilter(ctx, filter, "date ASC, room_category ASC, channel ASC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("RECOMMENDATION_LIST_FAILED", "Failed to list recommendations", err)
	}

	items := make([]dto.RecommendationDTO, 0, len(recs))
	for _, rec := range recs {
		items = append(items, ToRecommendationDTO(*rec))
	}

	return &dto.ListRecommendationsResponse{
		Items: items,
		Total: total,
		Page:  page,
	}, nil
}

// transition applies one locked state change to the recommendation named by
// uuid, running mutate only when the transition is legal.
func (s *RecommendationFlowImpl) transition(ctx context.Context, rawUUID string, target models.RecommendationStatus, mutate func(*models.Recommendation)) (*models.Recommendation, error) {
	id, err := uuid.Parse(rawUUID)
	if err != nil {
		return nil, NewBusinessError("RECOMMENDATION_UUID_INVALID", "Invalid recommendation UUID", err)
	}

	var updated *models.Recommendation
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		rec, err := s.lockByUUID(txCtx, id)
		if err != nil {
			return err
		}

		if !rec.CanTransitionTo(target) {
			return &InvalidStateTransitionError{
				RecommendationID: rec.ID,
				From:             rec.Status.String(),
				To:               target.String(),
			}
		}

		rec.Status = target
		mutate(rec)

		if err := s.recommendationRepo.Update(txCtx, rec); err != nil {
			return NewBusinessError("RECOMMENDATION_UPDATE_FAILED", "Failed to update recommendation", err)
		}

		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// lockByUUID resolves the uuid then re-reads the row under FOR UPDATE.
func (s *RecommendationFlowImpl) lockByUUID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	rec, err := s.recommendationRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("RECOMMENDATION_LOOKUP_FAILED", "Failed to lookup recommendation", err)
	}
	if rec == nil {
		return nil, NewBusinessError("RECOMMENDATION_NOT_FOUND", "Recommendation not found", ErrRecommendationNotFound)
	}

	locked, err := s.recommendationRepo.ByIDForUpdate(ctx, rec.ID)
	if err != nil {
		return nil, NewBusinessError("RECOMMENDATION_LOCK_FAILED", "Failed to lock recommendation", err)
	}
	if locked == nil {
		return nil, NewBusinessError("RECOMMENDATION_NOT_FOUND", "Recommendation not found", ErrRecommendationNotFound)
	}

	return locked, nil
}
