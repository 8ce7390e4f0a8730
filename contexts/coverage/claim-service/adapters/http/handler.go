package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "showingcover/contexts/coverage/claim-service/application"
	"showingcover/contexts/coverage/claim-service/application/commands"
	"showingcover/contexts/coverage/claim-service/application/queries"
	"showingcover/contexts/coverage/claim-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/domain/services"
	httptransport "showingcover/contexts/coverage/claim-service/transport/http"
)

type Handler struct {
	FileClaim       commands.FileClaimUseCase
	PresignEvidence commands.PresignEvidenceUseCase
	Approve         commands.ApproveClaimUseCase
	Deny            commands.DenyClaimUseCase
	ListAll         queries.ListAllUseCase
	ListMine        queries.ListMineUseCase
	Logger          *slog.Logger
}

// FileClaimHandler godoc
// @Summary File a claim
// @Description Creates a pending claim. Without policy_id the filing agent owns the claim directly.
// @Tags claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Replays the original claim for a repeated request"
// @Param request body httptransport.FileClaimRequest true "Claim"
// @Success 201 {object} httptransport.FileClaimResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /claims [post]
func (h Handler) FileClaimHandler(
	ctx context.Context,
	actorID string,
	idempotencyKey string,
	req httptransport.FileClaimRequest,
) (httptransport.FileClaimResponse, error) {
	incidentDate, err := parseIncidentDate(req.IncidentDate)
	if err != nil {
		return httptransport.FileClaimResponse{}, err
	}
	result, err := h.FileClaim.Execute(ctx, commands.FileClaimCommand{
		ActorID:        actorID,
		PolicyID:       req.PolicyID,
		IncidentDate:   incidentDate,
		DamagedItems:   req.DamagedItems,
		Description:    req.Description,
		Files:          req.Files,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.FileClaimResponse{}, err
	}
	return httptransport.FileClaimResponse{Claim: mapClaim(result.Claim), Replayed: result.Replayed}, nil
}

// PresignUploadHandler godoc
// @Summary Presign an evidence upload
// @Tags claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.PresignUploadRequest true "File"
// @Success 200 {object} httptransport.PresignUploadResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /claims/uploads [post]
func (h Handler) PresignUploadHandler(
	ctx context.Context,
	actorID string,
	req httptransport.PresignUploadRequest,
) (httptransport.PresignUploadResponse, error) {
	upload, err := h.PresignEvidence.Execute(ctx, commands.PresignEvidenceCommand{
		ActorID:     actorID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
	})
	if err != nil {
		application.ResolveLogger(h.Logger).Warn("evidence presign failed",
			"event", "http_claim_presign_failed",
			"module", "coverage/claim-service",
			"layer", "transport",
			"user_id", actorID,
			"error", err.Error(),
		)
		return httptransport.PresignUploadResponse{}, err
	}
	return httptransport.PresignUploadResponse{
		Key:       upload.Key,
		UploadURL: upload.URL,
		ExpiresAt: upload.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// ListMyClaimsHandler godoc
// @Summary List the caller's claims
// @Tags claims
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.ListClaimsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /claims/me [get]
func (h Handler) ListMyClaimsHandler(ctx context.Context, userID string) (httptransport.ListClaimsResponse, error) {
	rows, err := h.ListMine.Execute(ctx, userID)
	if err != nil {
		return httptransport.ListClaimsResponse{}, err
	}
	return mapRows(rows), nil
}

// ListAllClaimsHandler godoc
// @Summary List all claims
// @Description Admin listing. Rows whose owner cannot be resolved carry owner_resolution "unresolved".
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.ListClaimsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /claims [get]
func (h Handler) ListAllClaimsHandler(ctx context.Context, adminID string) (httptransport.ListClaimsResponse, error) {
	rows, err := h.ListAll.Execute(ctx, adminID)
	if err != nil {
		return httptransport.ListClaimsResponse{}, err
	}
	return mapRows(rows), nil
}

// ApproveClaimHandler godoc
// @Summary Approve a pending claim
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param claim_id path string true "Claim ID"
// @Param request body httptransport.ApproveClaimRequest false "Payout override and note"
// @Success 200 {object} httptransport.DecisionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /claims/{claim_id}/approve [post]
func (h Handler) ApproveClaimHandler(
	ctx context.Context,
	adminID string,
	claimID string,
	req httptransport.ApproveClaimRequest,
) (httptransport.DecisionResponse, error) {
	result, err := h.Approve.Execute(ctx, commands.ApproveClaimCommand{
		ClaimID:      claimID,
		AdminID:      adminID,
		PayoutAmount: req.PayoutAmount,
		AdminNote:    req.AdminNote,
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return httptransport.DecisionResponse{
		Claim:        mapClaim(result.Claim),
		PayoutAmount: services.Amount(result.PayoutCents).StringFixed(2),
	}, nil
}

// DenyClaimHandler godoc
// @Summary Deny a pending claim
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param claim_id path string true "Claim ID"
// @Param request body httptransport.DenyClaimRequest true "Reason and note"
// @Success 200 {object} httptransport.DecisionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /claims/{claim_id}/deny [post]
func (h Handler) DenyClaimHandler(
	ctx context.Context,
	adminID string,
	claimID string,
	req httptransport.DenyClaimRequest,
) (httptransport.DecisionResponse, error) {
	result, err := h.Deny.Execute(ctx, commands.DenyClaimCommand{
		ClaimID:   claimID,
		AdminID:   adminID,
		Reason:    req.Reason,
		AdminNote: req.AdminNote,
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return httptransport.DecisionResponse{Claim: mapClaim(result.Claim)}, nil
}

func parseIncidentDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: incident_date is required", domainerrors.ErrInvalidRequest)
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: incident_date must be YYYY-MM-DD or RFC3339", domainerrors.ErrInvalidRequest)
	}
	return parsed.UTC(), nil
}

func mapClaim(claim entities.Claim) httptransport.ClaimDTO {
	dto := httptransport.ClaimDTO{
		ClaimID:         claim.ClaimID,
		UserID:          claim.UserID,
		PolicyID:        claim.PolicyID,
		IncidentDate:    claim.IncidentDate.UTC().Format(time.DateOnly),
		DamagedItems:    nonNil(claim.DamagedItems),
		Description:     claim.Description,
		Files:           nonNil(claim.Files),
		Status:          string(claim.Status),
		MaxPayoutAmount: services.Amount(claim.MaxPayoutCents).StringFixed(2),
		CreatedAt:       claim.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       claim.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if claim.PayoutCents != nil {
		dto.PayoutAmount = services.Amount(*claim.PayoutCents).StringFixed(2)
	}
	return dto
}

func mapRows(rows []queries.ClaimRow) httptransport.ListClaimsResponse {
	resp := httptransport.ListClaimsResponse{Items: make([]httptransport.ClaimRowDTO, 0, len(rows))}
	for _, row := range rows {
		resp.Items = append(resp.Items, httptransport.ClaimRowDTO{
			ClaimDTO:        mapClaim(row.Claim),
			OwnerResolution: string(row.Owner.Kind),
			OwnerUserID:     row.Owner.UserID,
			OwnerEmail:      row.OwnerEmail,
			PropertyAddress: row.Owner.PropertyAddress,
		})
	}
	return resp
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
