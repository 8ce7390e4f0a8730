package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AuditEntryDTO struct {
	AuditID      string         `json:"audit_id"`
	AdminID      string         `json:"admin_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details"`
	CreatedAt    string         `json:"created_at"`
}

type ListAuditEntriesResponse struct {
	Items []AuditEntryDTO `json:"items"`
}

type AddNoteRequest struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	Note         string `json:"note"`
}

type AdminNoteDTO struct {
	NoteID       string `json:"note_id"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	AdminID      string `json:"admin_id"`
	Note         string `json:"note"`
	CreatedAt    string `json:"created_at"`
}

type ListNotesResponse struct {
	Items []AdminNoteDTO `json:"items"`
}
