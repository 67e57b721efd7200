package investapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	investgo "github.com/russianinvestments/invest-api-go-sdk/investgo"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"github.com/sirupsen/logrus"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

var ErrUnsupportedBond = errors.New("unsupported bond")

// bondNamespace scopes the SHA-1 ids derived from FIGIs.
var bondNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bond:figi"))

type instrumentsClient interface {
	BondByFigi(id string) (*investgo.BondResponse, error)
	GetBondCoupons(figi string, from, to time.Time) (*investgo.GetBondCouponsResponse, error)
}

// Defaults fills the terms the Invest API does not publish.
type Defaults struct {
	DiscountRate float64
	DayCount     int
	TaxRate      float64
}

// Source reads bond terms from the Invest API instruments service.
type Source struct {
	client   instrumentsClient
	defaults Defaults
	logger   logrus.FieldLogger
}

func NewSource(client *investgo.InstrumentsServiceClient, defaults Defaults, logger logrus.FieldLogger) *Source {
	return newSource(client, defaults, logger)
}

func newSource(client instrumentsClient, defaults Defaults, logger logrus.FieldLogger) *Source {
	if defaults.DayCount == 0 {
		defaults.DayCount = 360
	}
	return &Source{
		client:   client,
		defaults: defaults,
		logger:   logger.WithField("component", "investapi"),
	}
}

// BondID is the stable id a FIGI is stored under.
func BondID(figi string) uuid.UUID {
	return uuid.NewSHA1(bondNamespace, []byte(strings.ToUpper(strings.TrimSpace(figi))))
}

// FetchTerms loads one bond and its coupon calendar.
func (s *Source) FetchTerms(ctx context.Context, figi string) (*bonds.Terms, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	figi = strings.TrimSpace(figi)
	if figi == "" {
		return nil, errors.New("figi is required")
	}

	resp, err := s.client.BondByFigi(figi)
	if err != nil {
		return nil, fmt.Errorf("bond by figi %s: %w", figi, err)
	}
	if resp == nil || resp.BondResponse == nil || resp.GetInstrument() == nil {
		return nil, fmt.Errorf("bond by figi %s: empty response", figi)
	}

	bond := resp.GetInstrument()

	from := bond.GetPlacementDate().AsTime()
	to := bond.GetMaturityDate().AsTime()
	couponsResp, err := s.client.GetBondCoupons(figi, from, to)
	if err != nil {
		return nil, fmt.Errorf("bond coupons %s: %w", figi, err)
	}
	var coupons []*pb.Coupon
	if couponsResp != nil && couponsResp.GetBondCouponsResponse != nil {
		coupons = couponsResp.GetEvents()
	}

	terms, err := termsFromBond(bond, coupons, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", figi, err)
	}
	s.logger.WithFields(logrus.Fields{
		"figi":      figi,
		"bond_uid":  terms.ID,
		"frequency": terms.Frequency,
		"coupons":   len(coupons),
	}).Debug("bond terms fetched")
	return terms, nil
}

func termsFromBond(bond *pb.Bond, coupons []*pb.Coupon, defaults Defaults) (*bonds.Terms, error) {
	nominal := moneyToFloat(bond.GetInitialNominal())
	if nominal <= 0 {
		nominal = moneyToFloat(bond.GetNominal())
	}
	if nominal <= 0 {
		return nil, fmt.Errorf("%w: nominal value is missing", ErrUnsupportedBond)
	}

	frequency := int(bond.GetCouponQuantityPerYear())
	if frequency <= 0 || 12%frequency != 0 {
		return nil, fmt.Errorf("%w: %d coupons per year", ErrUnsupportedBond, frequency)
	}
	if bond.GetMaturityDate() == nil || bond.GetPlacementDate() == nil {
		return nil, fmt.Errorf("%w: placement or maturity date is missing", ErrUnsupportedBond)
	}
	maturity := truncateDay(bond.GetMaturityDate().AsTime())
	placement := truncateDay(bond.GetPlacementDate().AsTime())

	price := moneyToFloat(bond.GetPlacementPrice())
	if price <= 0 {
		price = nominal
	}

	terms := &bonds.Terms{
		ID:            BondID(bond.GetFigi()),
		Name:          strings.TrimSpace(bond.GetName()),
		Currency:      strings.ToUpper(strings.TrimSpace(bond.GetCurrency())),
		NominalValue:  nominal,
		PurchasePrice: price,
		IssueDate:     alignIssueDate(placement, maturity, 12/frequency),
		MaturityDate:  maturity,
		CouponRate:    couponRate(coupons, nominal, frequency),
		RateType:      bonds.RateFixed,
		Frequency:     frequency,
		Amortization:  bonds.AmortizationBullet,
		DiscountRate:  defaults.DiscountRate,
		DayCount:      defaults.DayCount,
		TaxRate:       defaults.TaxRate,
	}
	if bond.GetFloatingCouponFlag() {
		terms.RateType = bonds.RateFloating
		terms.FloatingPolicy = bonds.FloatingHold
	}
	if bond.GetAmortizationFlag() {
		terms.Amortization = bonds.AmortizationLevelPrincipal
	}
	return terms, nil
}

// couponRate annualizes the first known coupon payment against the nominal.
func couponRate(coupons []*pb.Coupon, nominal float64, frequency int) float64 {
	var first *pb.Coupon
	for _, c := range coupons {
		if c == nil || moneyToFloat(c.GetPayOneBond()) <= 0 {
			continue
		}
		if first == nil || c.GetCouponNumber() < first.GetCouponNumber() {
			first = c
		}
	}
	if first == nil {
		return 0
	}
	return moneyToFloat(first.GetPayOneBond()) / nominal * float64(frequency)
}

// alignIssueDate walks back from maturity in whole periods to the last coupon
// date on or before placement, so the tenor divides into periods.
func alignIssueDate(placement, maturity time.Time, months int) time.Time {
	if !maturity.After(placement) {
		return placement
	}
	y, m, d := maturity.Date()
	for k := 1; ; k++ {
		first := time.Date(y, m-time.Month(k*months), 1, 0, 0, 0, 0, time.UTC)
		day := d
		if last := first.AddDate(0, 1, -1).Day(); day > last {
			day = last
		}
		candidate := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
		if !candidate.After(placement) {
			return candidate
		}
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func moneyToFloat(v *pb.MoneyValue) float64 {
	if v == nil {
		return 0
	}
	return float64(v.GetUnits()) + float64(v.GetNano())/1e9
}
