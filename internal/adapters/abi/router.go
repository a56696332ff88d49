package abi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// Router runs calldata steps through a Dispatcher bound to the target factory
type Router struct {
	codec *Codec
	log   *slog.Logger
}

// NewRouter creates a router sharing codec across factories
func NewRouter(codec *Codec, log *slog.Logger) *Router {
	return &Router{codec: codec, log: log}
}

// Route dispatches call against factory. The factory error of a reverted
// call and the events of a deployment are returned as decoded from their
// ABI encoding.
func (r *Router) Route(ctx context.Context, factory *usecase.Factory, call *domain.RawCall) (*usecase.RoutedCall, error) {
	if decoded, err := r.codec.DecodeCall(call.Data); err == nil {
		r.log.Debug("routing call", "chain", factory.ChainID(), "call", decoded.FormatCompact())
	}

	result, err := NewDispatcher(factory, r.codec, r.log).Call(ctx, call.Caller, call.Value, call.Data)
	if err != nil {
		return nil, err
	}
	if result.Reverted {
		fe, err := r.codec.DecodeError(result.ReturnData)
		if err != nil {
			return nil, fmt.Errorf("failed to decode revert: %w", err)
		}
		fe.Stage = result.Error.Stage
		return nil, fe
	}

	routed := &usecase.RoutedCall{Method: result.Method}
	if result.Deployment == nil {
		routed.Address = common.BytesToAddress(result.ReturnData)
		return routed, nil
	}

	deployment := *result.Deployment
	deployment.Events = make([]domain.EventRecord, 0, len(result.Logs))
	for _, log := range result.Logs {
		event, err := r.codec.DecodeLog(*log)
		if err != nil {
			return nil, fmt.Errorf("failed to decode log: %w", err)
		}
		deployment.Events = append(deployment.Events, event)
	}
	routed.Address = deployment.Address
	routed.Deployment = &deployment
	return routed, nil
}

var _ usecase.CallRouter = (*Router)(nil)
