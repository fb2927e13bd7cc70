package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	Published     bool               `json:"published"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
}

type PostingEntry struct {
	ID         string             `json:"id"`
	Direction  string             `json:"direction"`
	Category   string             `json:"category"`
	Amount     decimal.Decimal    `json:"amount"`
	SourceKind string             `json:"source_kind"`
	SourceID   string             `json:"source_id"`
	Narrative  string             `json:"narrative"`
	ActorID    string             `json:"actor_id"`
	OccurredAt pgtype.Timestamptz `json:"occurred_at"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

type StockItem struct {
	ID               string             `json:"id"`
	Sku              pgtype.Text        `json:"sku"`
	Name             string             `json:"name"`
	Unit             string             `json:"unit"`
	Balance          int64              `json:"balance"`
	MinimumThreshold int64              `json:"minimum_threshold"`
	MaximumThreshold pgtype.Int8        `json:"maximum_threshold"`
	Version          int64              `json:"version"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

type StockMovement struct {
	ID                string             `json:"id"`
	ItemID            string             `json:"item_id"`
	Sequence          int64              `json:"sequence"`
	Kind              string             `json:"kind"`
	ReasonCode        string             `json:"reason_code"`
	Reason            string             `json:"reason"`
	ReferenceID       string             `json:"reference_id"`
	ActorID           string             `json:"actor_id"`
	RequestedQuantity int64              `json:"requested_quantity"`
	QuantityDelta     int64              `json:"quantity_delta"`
	PreviousBalance   int64              `json:"previous_balance"`
	ResultingBalance  int64              `json:"resulting_balance"`
	OccurredAt        pgtype.Timestamptz `json:"occurred_at"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
}
