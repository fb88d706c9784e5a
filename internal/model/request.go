package model

import (
	"errors"
	"time"
)

// RequestStatus is the lifecycle state of a transfusion request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestCancelled RequestStatus = "cancelled"
)

var ErrUnknownRequestStatus = errors.New("unknown request status")

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case RequestPending, RequestFulfilled, RequestCancelled:
		return RequestStatus(s), nil
	}
	return "", ErrUnknownRequestStatus
}

// Request is a hospital's request for blood of a given group.
//
// Fields:
//  ID          – primary key identifier.
//  RequestedBy – user who submitted the request.
//  PatientName – patient the blood is for.
//  BloodGroup  – requested group.
//  RequestedML – positive volume requested.
//  Hospital    – destination hospital.
//  RequestedOn – calendar date of the request.
//  Status      – pending, fulfilled or cancelled.
//  CreatedAt   – creation timestamp.
type Request struct {
	ID          uint64
	RequestedBy uint64
	PatientName string
	BloodGroup  BloodGroup
	RequestedML uint32
	Hospital    string
	RequestedOn time.Time
	Status      RequestStatus
	CreatedAt   time.Time
}

// Transfusion links one donated unit to the request it was used for.  A
// unit appears in at most one transfusion (unique donation_id).
type Transfusion struct {
	ID           uint64
	DonationID   uint64
	RequestID    uint64
	QuantityML   uint32
	TransfusedOn time.Time
}
