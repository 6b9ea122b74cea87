package domain

import "time"

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is the execution style of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderState tracks the order lifecycle.
type OrderState string

const (
	OrderStateWorking   OrderState = "working"
	OrderStateFilled    OrderState = "filled"
	OrderStateCancelled OrderState = "cancelled"
)

// Order is one working or terminal order known to the ledger.
type Order struct {
	ID         string
	ClientID   string
	Symbol     string
	Side       OrderSide
	Units      float64
	Type       OrderType
	Price      float64 // limit price; zero for market orders
	StopLoss   float64 // zero when not set
	TakeProfit float64 // zero when not set
	State      OrderState
	CreatedAt  time.Time
}

// OrderRequest is the caller-facing order placement shape. Units must be
// positive; direction is carried by Side.
type OrderRequest struct {
	Symbol     string
	Side       OrderSide
	Units      float64
	Type       OrderType
	Price      float64
	StopLoss   float64
	TakeProfit float64
}

// OrderAck is the venue's acknowledgement of a placed order.
type OrderAck struct {
	OrderID     string
	ClientID    string
	Symbol      string
	Filled      bool
	FilledPrice float64
	SubmittedAt time.Time
}
