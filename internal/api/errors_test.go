package api

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viepratiqueservice-arch/Visela/internal/checkout"
	"github.com/viepratiqueservice-arch/Visela/internal/command"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/cart"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/reload"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/lock"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", validationError{fields: []string{"pin (len)"}}, http.StatusBadRequest},
		{"bad body", fmt.Errorf("%w: unexpected EOF", errInvalidBody), http.StatusBadRequest},
		{"credentials", user.ErrInvalidCredentials, http.StatusUnauthorized},
		{"cercle only", cart.ErrCercleOnly, http.StatusForbidden},
		{"wallet not eligible", checkout.ErrWalletNotEligible, http.StatusForbidden},
		{"unknown user", user.ErrUserNotFound, http.StatusNotFound},
		{"already decided", fmt.Errorf("approve: %w", reload.ErrAlreadyDecided), http.StatusConflict},
		{"not ready", &command.NotReadyError{}, http.StatusUnprocessableEntity},
		{"below minimum", command.ErrBelowMinimum, http.StatusUnprocessableEntity},
		{"wallet locked", lock.ErrLocked, http.StatusTooManyRequests},
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, http.StatusServiceUnavailable},
		{"event read failure", fmt.Errorf("failed to load events: read events: %w", driver.ErrBadConn), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondError_HidesRemoteDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()

	respondError(rec, req, fmt.Errorf("load cart: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("10.0.0.5:6379 refused")}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"connection error"}`, rec.Body.String())
}
