package oanda

import (
	"strconv"
	"strings"
	"time"

	"github.com/denideni205/forex-trade/internal/domain"
)

// The OANDA v20 API encodes all decimal quantities as JSON strings.

type accountsResponse struct {
	Accounts []struct {
		ID string `json:"id"`
	} `json:"accounts"`
}

type accountDetailResponse struct {
	Account struct {
		ID       string `json:"id"`
		Alias    string `json:"alias"`
		Currency string `json:"currency"`
		Balance  string `json:"balance"`
	} `json:"account"`
}

type candlesResponse struct {
	Instrument  string `json:"instrument"`
	Granularity string `json:"granularity"`
	Candles     []struct {
		Complete bool   `json:"complete"`
		Time     string `json:"time"`
		Volume   int    `json:"volume"`
		Mid      struct {
			O string `json:"o"`
			H string `json:"h"`
			L string `json:"l"`
			C string `json:"c"`
		} `json:"mid"`
	} `json:"candles"`
}

type orderPayload struct {
	Order orderBody `json:"order"`
}

type orderBody struct {
	Instrument       string            `json:"instrument"`
	Units            string            `json:"units"` // signed: negative sells
	Type             string            `json:"type"`  // MARKET or LIMIT
	TimeInForce      string            `json:"timeInForce"`
	PositionFill     string            `json:"positionFill"`
	Price            string            `json:"price,omitempty"`
	StopLossOnFill   *priceBlock       `json:"stopLossOnFill,omitempty"`
	TakeProfitOnFill *priceBlock       `json:"takeProfitOnFill,omitempty"`
	ClientExtensions *clientExtensions `json:"clientExtensions,omitempty"`
}

type priceBlock struct {
	Price string `json:"price"`
}

type clientExtensions struct {
	ID string `json:"id"`
}

type orderResponse struct {
	OrderCreateTransaction struct {
		ID   string `json:"id"`
		Time string `json:"time"`
	} `json:"orderCreateTransaction"`
	OrderFillTransaction struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	} `json:"orderFillTransaction"`
}

type errorResponse struct {
	ErrorMessage string `json:"errorMessage"`
	RejectReason string `json:"rejectReason"`
}

func (e errorResponse) reason() string {
	if e.RejectReason != "" {
		return e.RejectReason
	}
	return e.ErrorMessage
}

type openPositionsResponse struct {
	Positions []struct {
		Instrument string       `json:"instrument"`
		Long       positionSide `json:"long"`
		Short      positionSide `json:"short"`
	} `json:"positions"`
}

type positionSide struct {
	Units        string `json:"units"`
	AveragePrice string `json:"averagePrice"`
}

// streamMessage is the envelope for every inbound streaming event.
type streamMessage struct {
	Type string `json:"type"` // PRICE, TRANSACTION or HEARTBEAT

	// PRICE fields
	Instrument string `json:"instrument"`
	Time       string `json:"time"`
	Bids       []struct {
		Price string `json:"price"`
	} `json:"bids"`
	Asks []struct {
		Price string `json:"price"`
	} `json:"asks"`

	// TRANSACTION fields
	Transaction *streamTransaction `json:"transaction"`
}

type streamTransaction struct {
	ID         string `json:"id"`
	Type       string `json:"type"` // ORDER_FILL or ORDER_CANCEL
	OrderID    string `json:"orderID"`
	Instrument string `json:"instrument"`
	Units      string `json:"units"` // signed
	Price      string `json:"price"`
	Time       string `json:"time"`
}

type subscribeRequest struct {
	Type        string   `json:"type"`
	AccountID   string   `json:"accountID"`
	Instruments []string `json:"instruments"`
}

func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// toTransaction converts a venue transaction into the domain shape: signed
// units become a side plus positive units, and the venue's transaction types
// collapse to fill/cancel kinds.
func (t *streamTransaction) toTransaction() (domain.Transaction, bool) {
	var kind domain.TransactionKind
	switch strings.ToUpper(t.Type) {
	case "ORDER_FILL":
		kind = domain.TransactionFill
	case "ORDER_CANCEL":
		kind = domain.TransactionCancel
	default:
		return domain.Transaction{}, false
	}

	units := parseDecimal(t.Units)
	side := domain.OrderSideBuy
	if units < 0 {
		side = domain.OrderSideSell
		units = -units
	}

	return domain.Transaction{
		ID:      t.ID,
		Kind:    kind,
		OrderID: t.OrderID,
		Symbol:  t.Instrument,
		Side:    side,
		Units:   units,
		Price:   parseDecimal(t.Price),
		Time:    parseTime(t.Time),
	}, true
}
