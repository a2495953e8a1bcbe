// Package inventory records stock movements and reports stock levels. It is
// the single write path for movements, shared by the REST API and the admin
// console.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// Service validates and records movements against the ledger.
type Service struct {
	DB *db.DB

	// Location is used to default a movement's date and time.
	Location *time.Location
	// Now returns the current instant. Tests replace it.
	Now func() time.Time
}

// New returns a Service using the wall clock in loc.
func New(d *db.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{DB: d, Location: loc, Now: time.Now}
}

// MovementRequest is an unvalidated movement as submitted by a client.
// Numbers arrive as json.Number so that both JSON numbers and form values
// can be validated the same way. Empty date and time mean "now".
type MovementRequest struct {
	Product      json.Number `json:"product"`
	Quantity     json.Number `json:"quantity"`
	MovementType string      `json:"movement_type"`
	MovementDate string      `json:"movement_date"`
	Time         string      `json:"time"`
}

const (
	msgRequired       = "This field is required."
	msgInvalidInteger = "A valid integer is required."
	msgPositive       = "Ensure this value is greater than 0."
	msgMaxQuantity    = "Ensure this value is less than or equal to 2147483647."
	msgDateFormat     = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgTimeFormat     = "Time has wrong format. Use one of these formats instead: hh:mm[:ss[.uuuuuu]]."
)

func (s *Service) parse(req MovementRequest) (model.StockMovement, *ValidationError) {
	verr := &ValidationError{}
	var m model.StockMovement

	if p := strings.TrimSpace(string(req.Product)); p == "" {
		verr.Add("product", msgRequired)
	} else if id, err := strconv.ParseInt(p, 10, 64); err != nil {
		verr.Add("product", fmt.Sprintf("Incorrect type. Expected pk value, received %q.", p))
	} else {
		m.ProductID = id
	}

	if q := strings.TrimSpace(string(req.Quantity)); q == "" {
		verr.Add("quantity", msgRequired)
	} else if n, err := strconv.ParseInt(q, 10, 64); errors.Is(err, strconv.ErrRange) {
		if n < 0 {
			verr.Add("quantity", msgPositive)
		} else {
			verr.Add("quantity", msgMaxQuantity)
		}
	} else if err != nil {
		verr.Add("quantity", msgInvalidInteger)
	} else if n <= 0 {
		verr.Add("quantity", msgPositive)
	} else if n > model.MaxQuantity {
		verr.Add("quantity", msgMaxQuantity)
	} else {
		m.Quantity = n
	}

	if k := strings.TrimSpace(req.MovementType); k == "" {
		verr.Add("movement_type", msgRequired)
	} else if kind, err := model.ParseMovementKind(k); err != nil {
		verr.Add("movement_type", fmt.Sprintf("%q is not a valid choice.", k))
	} else {
		m.Kind = kind
	}

	now := s.Now().In(s.Location)

	if d := strings.TrimSpace(req.MovementDate); d == "" {
		m.Date = model.DateOf(now)
	} else if date, err := model.ParseDate(d); err != nil {
		verr.Add("movement_date", msgDateFormat)
	} else {
		m.Date = date
	}

	if t := strings.TrimSpace(req.Time); t == "" {
		m.Time = model.TimeOf(now)
	} else if tod, err := model.ParseTimeOfDay(t); err != nil {
		verr.Add("time", msgTimeFormat)
	} else {
		m.Time = tod
	}

	if verr.Empty() {
		return m, nil
	}
	return m, verr
}

// RecordMovement validates req, fills in a missing date or time with the
// current moment and appends the movement. Outbound movements larger than the
// current stock are rejected with a *ValidationError whose message is the
// insufficient stock message; the error also matches
// store.ErrInsufficientStock. Nothing is written when an error is returned.
func (s *Service) RecordMovement(ctx context.Context, req MovementRequest) (*model.StockMovement, error) {
	log := zerolog.Ctx(ctx)

	m, verr := s.parse(req)
	if verr != nil {
		return nil, verr
	}

	created, err := store.RecordMovement(ctx, s.DB, m)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		verr := &ValidationError{}
		verr.Add("product", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", m.ProductID))
		return nil, verr
	case errors.Is(err, store.ErrInsufficientStock):
		log.Warn().
			Int64("product_id", m.ProductID).
			Int64("quantity", m.Quantity).
			Msg("outbound movement rejected")
		return nil, &ValidationError{NonField: err.Error(), cause: err}
	case errors.Is(err, store.ErrInvalidArgument):
		return nil, &ValidationError{NonField: err.Error(), cause: err}
	default:
		return nil, err
	}

	log.Info().
		Int64("movement_id", created.ID).
		Int64("product_id", created.ProductID).
		Str("movement_type", string(created.Kind)).
		Int64("quantity", created.Quantity).
		Msg("movement recorded")

	return created, nil
}

// CurrentStock returns the current stock of an existing product. Unlike
// store.CurrentStock it reports ErrNotFound for an unknown product, so a
// deleted product does not look like one with no stock.
func (s *Service) CurrentStock(ctx context.Context, productID int64) (int64, error) {
	if _, err := store.GetProduct(ctx, s.DB, productID); err != nil {
		return 0, err
	}
	return store.CurrentStock(ctx, s.DB, productID)
}

// StockLevels lists products with their current stock.
func (s *Service) StockLevels(ctx context.Context, filter store.StockLevelFilter, page store.Page) ([]model.StockLevel, int, error) {
	return store.ListStockLevels(ctx, s.DB, filter, page)
}

// StockLevel returns one product with its current stock.
func (s *Service) StockLevel(ctx context.Context, productID int64) (*model.StockLevel, error) {
	return store.GetStockLevel(ctx, s.DB, productID)
}

// Movement returns a single movement, or store.ErrNotFound.
func (s *Service) Movement(ctx context.Context, id int64) (*model.StockMovement, error) {
	return store.GetMovement(ctx, s.DB, id)
}

// Movements lists movements, most recent first unless order says otherwise.
func (s *Service) Movements(ctx context.Context, filter store.MovementFilter, order []store.OrderField, page store.Page) ([]model.StockMovement, int, error) {
	return store.ListMovements(ctx, s.DB, filter, order, page)
}
