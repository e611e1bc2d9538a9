// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation.
package email

import "context"

// LeadNotificationParams holds the data for the internal lead-alert email
// sent when a contact form is submitted.
type LeadNotificationParams struct {
	Name       string
	Email      string
	Company    string
	Role       string
	Motivation string
	Score      int    // 0 when the lead has not completed an assessment
	Tier       string // empty when no assessment was completed
	Variant    string
}

// BookingParams holds the data for the advisory-sprint booking alert.
type BookingParams struct {
	Name        string
	Email       string
	Company     string
	CompanyName string // portfolio company the sprint is scoped to; may be empty
	Score       int
	Tier        string
	Notes       string
}

// ReportReadyParams holds the data for the report delivery email sent to the
// lead once their scored report has been persisted.
type ReportReadyParams struct {
	To          string
	Name        string // used in the greeting; may be empty
	Tier        string
	AccessToken string // opaque token inserted into the report URL
}

// Sender is the interface the handlers and worker use to send email.
// Tests inject a stub that records calls without hitting the network.
type Sender interface {
	// SendLeadNotification alerts the sales inbox about a new lead. Returns
	// the provider's email id for the {success, emailId} response contract.
	SendLeadNotification(ctx context.Context, p LeadNotificationParams) (string, error)

	// SendBookingNotification alerts the sales inbox about an advisory-sprint
	// booking request. Same contract as SendLeadNotification.
	SendBookingNotification(ctx context.Context, p BookingParams) (string, error)

	// SendReportReady sends the lead their report link. Called by the worker
	// after the lead record is finalized.
	SendReportReady(ctx context.Context, p ReportReadyParams) (string, error)
}
