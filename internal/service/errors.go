package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/hivefund/ledger/internal/ledger"
)

// toConnectError maps ledger errors onto Connect codes.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	return connect.NewError(connectCode(err), err)
}

func connectCode(err error) connect.Code {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidMessage),
		errors.Is(err, ledger.ErrInvalidPledge),
		errors.Is(err, ledger.ErrDeadlineInPast),
		errors.Is(err, ledger.ErrInvalidFilter),
		errors.Is(err, ledger.ErrInvalidCampaign),
		errors.Is(err, ledger.ErrIdempotencyKeyReused):
		return connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrCampaignNotActive):
		return connect.CodeFailedPrecondition
	case errors.Is(err, ledger.ErrPoolAlreadyActive):
		return connect.CodeAlreadyExists
	case errors.Is(err, ledger.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, ledger.ErrStorage):
		return connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	default:
		return connect.CodeInternal
	}
}

func invalidArgument(format string, args ...any) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// parseAmount parses a decimal amount field. Empty strings are rejected.
func parseAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, invalidArgument("%s required", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalidArgument("%s: not a decimal amount: %q", field, s)
	}
	return d, nil
}
