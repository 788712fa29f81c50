package command

import (
	"context"

	"github.com/viepratiqueservice-arch/Visela/internal/domain/reload"
	"go.uber.org/zap"
)

// RequestReload opens a pending wallet top-up for the customer.
func (h *Handler) RequestReload(ctx context.Context, cmd RequestReload) (*reload.Reload, error) {
	u, err := h.svc.Users.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	return h.svc.Reloads.Request(ctx, u.ID, u.Name, cmd.Amount)
}

// ApproveReload credits the wallet once. It runs under the same wallet lock
// as checkout so a debit and a credit never interleave.
func (h *Handler) ApproveReload(ctx context.Context, cmd ApproveReload) (*reload.Reload, error) {
	r, err := h.svc.Reloads.Get(ctx, cmd.ReloadID)
	if err != nil {
		return nil, err
	}

	release, err := h.acquireWallet(ctx, r.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	customer, err := h.svc.Users.Get(ctx, r.UserID)
	if err != nil {
		return nil, err
	}
	approved, err := h.svc.Reloads.Approve(ctx, cmd.ReloadID, cmd.AdminID, customer)
	if err != nil {
		return nil, err
	}

	h.metrics.ReloadDecided(string(reload.StatusApproved))
	h.log.Info("reload approved",
		zap.String("component", "Wallet"),
		zap.String("reload_id", approved.ID),
		zap.String("user_id", approved.UserID),
		zap.Int64("amount", approved.Amount),
		zap.Int64("balance", customer.WalletBalance),
	)
	return approved, nil
}

func (h *Handler) RejectReload(ctx context.Context, cmd RejectReload) (*reload.Reload, error) {
	rejected, err := h.svc.Reloads.Reject(ctx, cmd.ReloadID, cmd.AdminID, cmd.Reason)
	if err != nil {
		return nil, err
	}
	h.metrics.ReloadDecided(string(reload.StatusRejected))
	return rejected, nil
}
