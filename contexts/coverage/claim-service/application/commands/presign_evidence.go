package commands

import (
	"context"
	"path"
	"strings"
	"time"

	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/ports"
)

var allowedEvidenceTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/heic":      {},
	"application/pdf": {},
	"video/mp4":       {},
}

type PresignEvidenceCommand struct {
	ActorID     string
	Filename    string
	ContentType string
}

// PresignEvidenceUseCase hands out a short-lived upload URL. The returned key
// is what FileClaim later records in the claim's files.
type PresignEvidenceUseCase struct {
	Evidence   ports.EvidenceStore
	Authorizer ports.Authorizer
	UploadTTL  time.Duration
}

func (u PresignEvidenceUseCase) Execute(ctx context.Context, cmd PresignEvidenceCommand) (ports.EvidenceUpload, error) {
	filename := path.Base(strings.TrimSpace(cmd.Filename))
	if strings.TrimSpace(cmd.ActorID) == "" || filename == "" || filename == "." || filename == "/" {
		return ports.EvidenceUpload{}, domainerrors.ErrInvalidRequest
	}
	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	if _, ok := allowedEvidenceTypes[contentType]; !ok {
		return ports.EvidenceUpload{}, domainerrors.ErrUnsupportedEvidence
	}
	// Any caller with a profile may upload evidence for their own claims.
	if err := requireCapability(ctx, u.Authorizer, cmd.ActorID, ports.CapabilitySelfServiceRead, cmd.ActorID); err != nil {
		return ports.EvidenceUpload{}, err
	}
	if u.Evidence == nil {
		return ports.EvidenceUpload{}, domainerrors.ErrDependencyUnavailable
	}

	ttl := u.UploadTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return u.Evidence.PresignUpload(ctx, cmd.ActorID, filename, contentType, ttl)
}
