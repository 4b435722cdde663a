package domain

import "time"

// Amounts are int64 in minor currency units everywhere.

const (
	EventStatusScheduled = "scheduled"
	EventStatusLive      = "live"
	EventStatusEnded     = "ended"
	EventStatusCancelled = "cancelled"
)

const (
	TicketStatusPending   = "pending"
	TicketStatusConfirmed = "confirmed"
	TicketStatusUsed      = "used"
	TicketStatusRefunded  = "refunded"
	TicketStatusFailed    = "failed"
)

const (
	TipStatusPending   = "pending"
	TipStatusCompleted = "completed"
	TipStatusFailed    = "failed"
	TipStatusRefunded  = "refunded"
)

const (
	CommissionStatusPending   = "pending"
	CommissionStatusPaid      = "paid"
	CommissionStatusCancelled = "cancelled"
)

const (
	TransactionTypeTicket = "ticket_purchase"
	TransactionTypeTip    = "tip"

	TransactionStatusCompleted = "completed"
	TransactionStatusRefunded  = "refunded"
)

const (
	PayoutStatusPaid = "paid"
)

type Artist struct {
	ID                 string    `db:"id"`
	UserID             string    `db:"user_id"`
	DisplayName        string    `db:"display_name"`
	StripeAccountID    *string   `db:"stripe_account_id"`
	OnboardingComplete bool      `db:"onboarding_complete"`
	CreatedAt          time.Time `db:"created_at"`
}

func (a *Artist) PayoutAccount() string {
	if a == nil || a.StripeAccountID == nil {
		return ""
	}
	return *a.StripeAccountID
}

type Event struct {
	ID          string    `db:"id"`
	ArtistID    string    `db:"artist_id"`
	Title       string    `db:"title"`
	Status      string    `db:"status"`
	TicketPrice int64     `db:"ticket_price"`
	Capacity    int       `db:"capacity"`
	TicketsSold int       `db:"tickets_sold"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
}

func (e *Event) Purchasable() bool {
	return e.Status != EventStatusEnded && e.Status != EventStatusCancelled
}

type Ticket struct {
	ID              string    `db:"id"`
	EventID         string    `db:"event_id"`
	UserID          string    `db:"user_id"`
	PurchasePrice   int64     `db:"purchase_price"`
	PaymentIntentID *string   `db:"payment_intent_id"`
	Status          string    `db:"status"`
	AffiliateID     *string   `db:"affiliate_id"`
	PurchasedAt     time.Time `db:"purchased_at"`
}

type Tip struct {
	ID              string    `db:"id"`
	FromUserID      string    `db:"from_user_id"`
	ToArtistID      string    `db:"to_artist_id"`
	EventID         *string   `db:"event_id"`
	Amount          int64     `db:"amount"`
	Message         string    `db:"message"`
	PaymentIntentID *string   `db:"payment_intent_id"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
}

type Transaction struct {
	ID              string            `db:"id"`
	TransactionType string            `db:"transaction_type"`
	Amount          int64             `db:"amount"`
	Currency        string            `db:"currency"`
	PaymentIntentID string            `db:"payment_intent_id"`
	Status          string            `db:"status"`
	Metadata        map[string]string `db:"metadata"`
	CreatedAt       time.Time         `db:"created_at"`
}

type Affiliate struct {
	ID                     string    `db:"id"`
	ReferralCode           string    `db:"referral_code"`
	ParentAffiliateID      *string   `db:"parent_affiliate_id"`
	GrandparentAffiliateID *string   `db:"grandparent_affiliate_id"`
	TotalReferrals         int       `db:"total_referrals"`
	TotalEarnings          int64     `db:"total_earnings"`
	IsActive               bool      `db:"is_active"`
	CreatedAt              time.Time `db:"created_at"`
}

// Ancestors is the denormalized (parent, grandparent) pair fixed at registration.
func (a *Affiliate) Ancestors() [2]string {
	var out [2]string
	if a.ParentAffiliateID != nil {
		out[0] = *a.ParentAffiliateID
	}
	if a.GrandparentAffiliateID != nil {
		out[1] = *a.GrandparentAffiliateID
	}
	return out
}

type AffiliateCommission struct {
	ID               string     `db:"id"`
	AffiliateID      string     `db:"affiliate_id"`
	TicketID         string     `db:"ticket_id"`
	CommissionLevel  int        `db:"commission_level"`
	CommissionRate   string     `db:"commission_rate"`
	CommissionAmount int64      `db:"commission_amount"`
	Status           string     `db:"status"`
	PaidAt           *time.Time `db:"paid_at"`
	CreatedAt        time.Time  `db:"created_at"`
}

type AffiliateStats struct {
	AffiliateID     string
	ReferralCode    string
	TotalReferrals  int
	TotalEarnings   int64
	PendingEarnings int64
	PaidEarnings    int64
	ByLevel         map[int]int64
}

type Payout struct {
	ID               string    `db:"id"`
	EventID          string    `db:"event_id"`
	ArtistID         string    `db:"artist_id"`
	GrossRevenue     int64     `db:"gross_revenue"`
	ArtistShare      int64     `db:"artist_share"`
	PlatformShare    int64     `db:"platform_share"`
	StripeTransferID string    `db:"stripe_transfer_id"`
	Status           string    `db:"status"`
	PayoutDate       time.Time `db:"payout_date"`
}

type WebhookEvent struct {
	EventID    string    `db:"event_id"`
	EventType  string    `db:"event_type"`
	ReceivedAt time.Time `db:"received_at"`
}

// Checkout is what the client needs to complete a payment out-of-band.
type Checkout struct {
	RecordID        string
	PaymentIntentID string
	ClientSecret    string
	Amount          int64
	Currency        string
}

const (
	PayoutOutcomePaid                = "paid"
	PayoutOutcomeSkippedExisting     = "skipped_existing"
	PayoutOutcomeSkippedBelowMinimum = "skipped_below_minimum"
	PayoutOutcomeNoPayoutAccount     = "error_no_payout_account"
	PayoutOutcomeTransferFailed      = "error_transfer"
	PayoutOutcomeRecordFailed        = "error_record"
)

type PayoutOutcome struct {
	EventID     string
	ArtistID    string
	Outcome     string
	ArtistShare int64
	TransferID  string
}

type PayoutReport struct {
	SettlementDate time.Time
	Outcomes       []PayoutOutcome
}

func (r *PayoutReport) Count(outcome string) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Outcome == outcome {
			n++
		}
	}
	return n
}
