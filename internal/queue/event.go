// Package queue defines the events exchanged over RabbitMQ and the
// background consumer that appends them to the audit log.
package queue

// Routing keys; each event type has its own durable queue of the same name.
const (
	DonationRecordedQueue = "donation.recorded"
	RequestFulfilledQueue = "request.fulfilled"
)

// Queues lists every queue the consumer listens on.
var Queues = []string{DonationRecordedQueue, RequestFulfilledQueue}

// DonationRecordedEvent is published after a donation is committed.
type DonationRecordedEvent struct {
	DonationID uint64 `json:"donation_id"`
	DonorID    uint64 `json:"donor_id"`
	RecordedBy uint64 `json:"recorded_by"`
	BloodGroup string `json:"blood_group"`
	QuantityML uint32 `json:"quantity_ml"`
	Center     string `json:"center"`
	Status     string `json:"status"`
	DonatedOn  string `json:"donated_on"`
	RecordedAt string `json:"recorded_at"`
}

// RequestFulfilledEvent is published after a request's units are allocated.
type RequestFulfilledEvent struct {
	RequestID   uint64   `json:"request_id"`
	BloodGroup  string   `json:"blood_group"`
	RequestedML uint32   `json:"requested_ml"`
	AllocatedML uint64   `json:"allocated_ml"`
	DonationIDs []uint64 `json:"donation_ids"`
	Hospital    string   `json:"hospital"`
	FulfilledBy uint64   `json:"fulfilled_by"`
	FulfilledAt string   `json:"fulfilled_at"`
}
