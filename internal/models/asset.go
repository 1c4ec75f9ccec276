package models

import "time"

// Asset is one physical tool or piece of equipment.
// Available is false exactly when CheckoutAt is set.
type Asset struct {
	ID           int        `json:"id"`
	OwnerID      int        `json:"owner_id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Description  string     `json:"description,omitempty"`
	SerialNumber *string    `json:"serial_number"`
	QRCode       string     `json:"qr_code"`
	Location     string     `json:"location"`
	Available    bool       `json:"available"`
	CheckoutAt   *time.Time `json:"checkout_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DefaultCategory is used when an asset is created without one.
const DefaultCategory = "equipment"

// CheckedOut reports whether the asset is currently out.
func (a Asset) CheckedOut() bool {
	return !a.Available
}

// Serial returns the serial number or "" when unset.
func (a Asset) Serial() string {
	if a.SerialNumber == nil {
		return ""
	}
	return *a.SerialNumber
}

// AssetView is the canonical outbound representation: the stored asset plus
// its status tier computed at read time.
type AssetView struct {
	Asset
	Tier string `json:"tier"`
}

// CheckoutLog records one checkout-to-checkin episode.
type CheckoutLog struct {
	ID               int        `json:"id"`
	AssetID          int        `json:"asset_id"`
	UserID           int        `json:"user_id"`
	CheckoutTime     time.Time  `json:"checkout_time"`
	CheckinTime      *time.Time `json:"checkin_time"`
	LocationCheckout string     `json:"location_checkout"`
	LocationCheckin  *string    `json:"location_checkin"`
}

// Open reports whether the episode has not been closed by a checkin.
func (l CheckoutLog) Open() bool {
	return l.CheckinTime == nil
}
