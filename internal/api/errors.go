package api

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/viepratiqueservice-arch/Visela/internal/auth"
	"github.com/viepratiqueservice-arch/Visela/internal/checkout"
	"github.com/viepratiqueservice-arch/Visela/internal/command"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/cart"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/category"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/inventory"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/logistics"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/product"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/reload"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/lock"
	"github.com/viepratiqueservice-arch/Visela/internal/logger"
	"github.com/viepratiqueservice-arch/Visela/internal/settings"
	"go.uber.org/zap"
)

// ConnectionErrorMessage is all a client learns about a failed backing service.
const ConnectionErrorMessage = "connection error"

type errorClass struct {
	status int
	errs   []error
}

// errorClasses is checked in order; the first match decides the status.
var errorClasses = []errorClass{
	{http.StatusBadRequest, []error{
		errInvalidBody,
		auth.ErrInvalidPIN,
		user.ErrInvalidClientID, user.ErrInvalidName, user.ErrInvalidAmount, user.ErrInvalidAddress,
		product.ErrInvalidPrice, product.ErrInvalidName, product.ErrInvalidRating, product.ErrInvalidUnit,
		category.ErrInvalidName, category.ErrInvalidColor,
		inventory.ErrInvalidQuantity, inventory.ErrNegativeStock,
		logistics.ErrInvalidName, logistics.ErrInvalidCoordinates,
		cart.ErrInvalidProduct,
		reload.ErrInvalidAmount,
		order.ErrInvalidPayment, order.ErrInvalidStatus,
		settings.ErrUnknownKey, settings.ErrInvalidValue,
		checkout.ErrInvalidStep, checkout.ErrInvalidSlot,
		command.ErrUnknownAddressKind, command.ErrMissingCoordinates, command.ErrUnknownReferrer,
	}},
	{http.StatusUnauthorized, []error{
		user.ErrInvalidCredentials, auth.ErrInvalidToken, auth.ErrExpiredToken,
	}},
	{http.StatusForbidden, []error{
		cart.ErrCercleOnly, command.ErrCercleLineForbidden, checkout.ErrWalletNotEligible,
		user.ErrSelfReferral,
	}},
	{http.StatusNotFound, []error{
		user.ErrUserNotFound, user.ErrAddressNotFound,
		product.ErrProductNotFound, category.ErrCategoryNotFound,
		order.ErrOrderNotFound, reload.ErrReloadNotFound,
		logistics.ErrCommuneNotFound, logistics.ErrZoneNotFound, logistics.ErrSectorNotFound,
		cart.ErrItemNotInCart,
	}},
	{http.StatusConflict, []error{
		user.ErrClientIDTaken, reload.ErrAlreadyDecided, order.ErrOrderDelivered,
		logistics.ErrDuplicateName, logistics.ErrHasChildren,
		store.ErrVersionConflict, command.ErrStoreClosed,
	}},
	{http.StatusUnprocessableEntity, []error{
		checkout.ErrNotReady, checkout.ErrInsufficientBalance, user.ErrInsufficientBalance,
		command.ErrBelowMinimum, logistics.ErrIncompleteAddress, logistics.ErrOutsideSelection,
		order.ErrEmptyOrder, order.ErrTotalMismatch, order.ErrMissingDelivery,
	}},
	{http.StatusTooManyRequests, []error{lock.ErrLocked}},
}

// statusFor maps a domain error to its HTTP status. Errors outside the known
// set are either remote failures (503) or bugs (500).
func statusFor(err error) int {
	var verr validationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	for _, class := range errorClasses {
		for _, target := range class.errs {
			if errors.Is(err, target) {
				return class.status
			}
		}
	}
	if isRemote(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func isRemote(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone)
}

// respondError writes err with its mapped status. Server-side failures are
// logged and hidden behind a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		message = ConnectionErrorMessage
	case http.StatusInternalServerError:
		message = "internal error"
	}
	if status >= 500 {
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
	}
	respondJSONError(w, message, status)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
