package httpadapter

import (
	"context"
	"time"

	"showingcover/contexts/internal-ops/audit-trail-service/application"
	"showingcover/contexts/internal-ops/audit-trail-service/domain/entities"
	httptransport "showingcover/contexts/internal-ops/audit-trail-service/transport/http"
)

type Handler struct {
	Service application.Service
}

// ListAuditLogsHandler godoc
// @Summary List recent audit entries
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries (default 50, max 200)"
// @Success 200 {object} httptransport.ListAuditEntriesResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /admin/audit-logs [get]
func (h Handler) ListAuditLogsHandler(ctx context.Context, limit int) (httptransport.ListAuditEntriesResponse, error) {
	rows, err := h.Service.ListRecent(ctx, limit)
	if err != nil {
		return httptransport.ListAuditEntriesResponse{}, err
	}
	resp := httptransport.ListAuditEntriesResponse{Items: make([]httptransport.AuditEntryDTO, 0, len(rows))}
	for _, row := range rows {
		details := row.Details
		if details == nil {
			details = map[string]any{}
		}
		resp.Items = append(resp.Items, httptransport.AuditEntryDTO{
			AuditID:      row.AuditID,
			AdminID:      row.AdminID,
			Action:       row.Action,
			ResourceType: row.ResourceType,
			ResourceID:   row.ResourceID,
			Details:      details,
			CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

// ListNotesHandler godoc
// @Summary List admin notes for a resource
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param resource_type query string true "claim, policy or user"
// @Param resource_id query string true "Resource ID"
// @Success 200 {object} httptransport.ListNotesResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /admin/notes [get]
func (h Handler) ListNotesHandler(ctx context.Context, resourceType string, resourceID string) (httptransport.ListNotesResponse, error) {
	notes, err := h.Service.ListNotes(ctx, resourceType, resourceID)
	if err != nil {
		return httptransport.ListNotesResponse{}, err
	}
	resp := httptransport.ListNotesResponse{Items: make([]httptransport.AdminNoteDTO, 0, len(notes))}
	for _, note := range notes {
		resp.Items = append(resp.Items, mapNote(note))
	}
	return resp, nil
}

// AddNoteHandler godoc
// @Summary Attach an admin note to a claim, policy or user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Replays the stored note for a repeated request"
// @Param request body httptransport.AddNoteRequest true "Note"
// @Success 201 {object} httptransport.AdminNoteDTO
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /admin/notes [post]
func (h Handler) AddNoteHandler(
	ctx context.Context,
	adminID string,
	idempotencyKey string,
	req httptransport.AddNoteRequest,
) (httptransport.AdminNoteDTO, error) {
	note, err := h.Service.AddNote(ctx, idempotencyKey, application.AddNoteInput{
		AdminID:      adminID,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Note:         req.Note,
	})
	if err != nil {
		return httptransport.AdminNoteDTO{}, err
	}
	return mapNote(note), nil
}

func mapNote(note entities.AdminNote) httptransport.AdminNoteDTO {
	return httptransport.AdminNoteDTO{
		NoteID:       note.NoteID,
		ResourceType: note.ResourceType,
		ResourceID:   note.ResourceID,
		AdminID:      note.AdminID,
		Note:         note.Note,
		CreatedAt:    note.CreatedAt.UTC().Format(time.RFC3339),
	}
}
