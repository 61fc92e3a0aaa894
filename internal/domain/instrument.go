package domain

import "time"

// Instrument is a tradeable symbol. ReferencePrice is informational and
// maintained outside the matching core; zero means it was never set.
type Instrument struct {
	InstrumentID   string
	Name           string
	ReferencePrice int64 // cents
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
