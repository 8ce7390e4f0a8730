package commands

import (
	"context"
	"fmt"

	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/ports"
)

func requireCapability(
	ctx context.Context,
	authorizer ports.Authorizer,
	userID string,
	capability string,
	resourceOwnerID string,
) error {
	if authorizer == nil {
		return fmt.Errorf("%w: no authorizer configured", domainerrors.ErrForbidden)
	}
	decision, err := authorizer.Authorize(ctx, userID, capability, resourceOwnerID)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", domainerrors.ErrForbidden, decision.Reason)
	}
	return nil
}
