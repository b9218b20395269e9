// Package payment computes checkout cost breakdowns for selected listings.
// Every function is pure: no clock, no globals, no I/O.
package payment

import (
	"errors"

	"estatehub/internal/core/domain"
)

const (
	// ApplicationFee is charged once per rental checkout
	ApplicationFee = 500.0

	// ProcessingFee is charged once per sale checkout
	ProcessingFee = 2500.0

	// DownPaymentRatio is the share of the sale price due up front
	DownPaymentRatio = 0.5

	// DefaultInstalments applies when no instalment count is chosen
	DefaultInstalments = 12

	MinInstalments = 1
	MaxInstalments = 60
)

// ErrInvalidInstalments is returned for instalment counts outside 1..60
var ErrInvalidInstalments = errors.New("instalment months must be between 1 and 60")

// Rental is the breakdown for rented listings
type Rental struct {
	MonthlyRent     float64 `json:"monthly_rent"`
	SecurityDeposit float64 `json:"security_deposit"`
	ApplicationFee  float64 `json:"application_fee"`
	Total           float64 `json:"total"`
}

// Sale is the breakdown for purchased listings
type Sale struct {
	TotalPrice        float64 `json:"total_price"`
	DownPayment       float64 `json:"down_payment"`
	ProcessingFee     float64 `json:"processing_fee"`
	InstalmentMonths  int     `json:"instalment_months"`
	MonthlyInstalment float64 `json:"monthly_instalment"`
	TotalDueToday     float64 `json:"total_due_today"`
}

// Breakdown combines both sides of a mixed checkout
type Breakdown struct {
	HasRental bool    `json:"has_rental"`
	HasSale   bool    `json:"has_sale"`
	Rental    Rental  `json:"rental"`
	Sale      Sale    `json:"sale"`
	DueToday  float64 `json:"due_today"`
}

// RentalBreakdown sums monthly rents; the deposit equals one month's rent.
func RentalBreakdown(listings []*domain.Listing) Rental {
	rent := sum(listings)
	return Rental{
		MonthlyRent:     rent,
		SecurityDeposit: rent,
		ApplicationFee:  ApplicationFee,
		Total:           rent + rent + ApplicationFee,
	}
}

// SaleBreakdown splits the sale price into a down payment paid off over
// the given number of months. Callers validate months with Instalments.
func SaleBreakdown(listings []*domain.Listing, months int) Sale {
	if months < MinInstalments {
		months = DefaultInstalments
	}
	price := sum(listings)
	down := price * DownPaymentRatio
	return Sale{
		TotalPrice:        price,
		DownPayment:       down,
		ProcessingFee:     ProcessingFee,
		InstalmentMonths:  months,
		MonthlyInstalment: down / float64(months),
		TotalDueToday:     down + ProcessingFee,
	}
}

// MixedBreakdown computes both sides independently; the flags tell which
// side has listings.
func MixedBreakdown(rentals, sales []*domain.Listing, months int) Breakdown {
	b := Breakdown{
		HasRental: len(rentals) > 0,
		HasSale:   len(sales) > 0,
	}
	if b.HasRental {
		b.Rental = RentalBreakdown(rentals)
		b.DueToday += b.Rental.Total
	}
	if b.HasSale {
		b.Sale = SaleBreakdown(sales, months)
		b.DueToday += b.Sale.TotalDueToday
	}
	return b
}

// Split partitions listings by category. Listings with an unknown
// category are ignored.
func Split(listings []*domain.Listing) (rentals, sales []*domain.Listing) {
	for _, l := range listings {
		if l == nil {
			continue
		}
		switch l.Category {
		case domain.CategoryRent:
			rentals = append(rentals, l)
		case domain.CategorySale:
			sales = append(sales, l)
		}
	}
	return rentals, sales
}

// Instalments validates a chosen instalment count; zero means the default.
func Instalments(months int) (int, error) {
	if months == 0 {
		return DefaultInstalments, nil
	}
	if months < MinInstalments || months > MaxInstalments {
		return 0, ErrInvalidInstalments
	}
	return months, nil
}

// Estimate splits the listings and computes the mixed breakdown.
func Estimate(listings []*domain.Listing, months int) (Breakdown, error) {
	m, err := Instalments(months)
	if err != nil {
		return Breakdown{}, err
	}
	rentals, sales := Split(listings)
	return MixedBreakdown(rentals, sales, m), nil
}

func sum(listings []*domain.Listing) float64 {
	var total float64
	for _, l := range listings {
		if l != nil {
			total += l.Price
		}
	}
	return total
}
