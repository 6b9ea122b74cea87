package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/denideni205/forex-trade/internal/domain"
)

// gatewayTimeout bounds every synchronous venue call issued by the gateway.
// Calls fail fast; nothing here retries, since a blind resubmission of an
// order risks a duplicate fill.
const gatewayTimeout = 10 * time.Second

// Gateway issues synchronous request/response operations against a session's
// venue.
type Gateway struct {
	logger *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(logger *slog.Logger) *Gateway {
	return &Gateway{logger: logger}
}

// PlaceOrder validates and submits one order on the session's account. On
// acceptance the working order is recorded in the session's ledger; the next
// fill or cancel transaction event retires it. Rejections surface as
// *domain.OrderRejectedError with the venue's reason.
func (g *Gateway) PlaceOrder(ctx context.Context, session *Session, req domain.OrderRequest) (domain.OrderAck, error) {
	if err := validateOrderRequest(req); err != nil {
		return domain.OrderAck{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	clientID := uuid.NewString()

	ack, err := session.Venue().PlaceOrder(ctx, session.Account.ID, req, clientID)
	if err != nil {
		g.logger.Warn("order placement failed",
			slog.String("symbol", req.Symbol),
			slog.String("side", string(req.Side)),
			slog.Float64("units", req.Units),
			slog.String("error", err.Error()),
		)
		return domain.OrderAck{}, err
	}

	state := domain.OrderStateWorking
	if ack.Filled {
		state = domain.OrderStateFilled
	}
	order := domain.Order{
		ID:         ack.OrderID,
		ClientID:   clientID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Units:      req.Units,
		Type:       req.Type,
		Price:      req.Price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		State:      state,
		CreatedAt:  ack.SubmittedAt,
	}
	if state == domain.OrderStateWorking {
		session.Ledger().RecordOrder(order)
	}

	g.logger.Info("order placed",
		slog.String("symbol", req.Symbol),
		slog.String("side", string(req.Side)),
		slog.Float64("units", req.Units),
		slog.String("order_id", ack.OrderID),
		slog.Bool("filled", ack.Filled),
	)

	return ack, nil
}

// FetchPositions reads the venue's open positions directly. It neither
// consults nor populates the ledger; reconciling is the caller's decision.
func (g *Gateway) FetchPositions(ctx context.Context, session *Session) ([]domain.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	positions, err := session.Venue().OpenPositions(ctx, session.Account.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}

	for i := range positions {
		positions[i].UnrealizedPnL = domain.UnrealizedPnL(positions[i], positions[i].CurrentPrice)
	}

	return positions, nil
}

func validateOrderRequest(req domain.OrderRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("order: missing symbol")
	}
	if req.Units <= 0 {
		return fmt.Errorf("order: units must be positive, got %v", req.Units)
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return fmt.Errorf("order: invalid side %q", req.Side)
	}
	switch req.Type {
	case domain.OrderTypeMarket:
	case domain.OrderTypeLimit:
		if req.Price <= 0 {
			return fmt.Errorf("order: limit order requires a positive price")
		}
	default:
		return fmt.Errorf("order: invalid type %q", req.Type)
	}
	return nil
}
