// Package regulation holds the regulatory constant set that parameterizes the
// simulation pipeline. A Config is built once, validated, and then treated as
// read-only for the lifetime of the process.
package regulation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/renovation-forecast/pkg/datetime"
	"github.com/iwvelando/renovation-forecast/pkg/rating"
)

// Config is one regulation vintage.
type Config struct {
	Vintage       string              `mapstructure:"vintage" json:"vintage" validate:"required"`
	VAT           VATRates            `mapstructure:"vat" json:"vat"`
	Fees          FeeRates            `mapstructure:"fees" json:"fees"`
	Consumption   RatingValues        `mapstructure:"consumption" json:"consumption"`
	Gain          GainThresholds      `mapstructure:"gain" json:"gain"`
	Grant         GrantRules          `mapstructure:"grant" json:"grant"`
	Certificate   CertificateRules    `mapstructure:"certificate" json:"certificate"`
	Engineering   EngineeringRules    `mapstructure:"engineering" json:"engineering"`
	Accessibility AccessibilityRules  `mapstructure:"accessibility" json:"accessibility"`
	Loan          LoanRules           `mapstructure:"loan" json:"loan"`
	Deduction     DeductionRules      `mapstructure:"deduction" json:"deduction"`
	Valuation     ValuationRules      `mapstructure:"valuation" json:"valuation"`
	Inaction      InactionRules       `mapstructure:"inaction" json:"inaction"`
	Compliance    ComplianceRules     `mapstructure:"compliance" json:"compliance"`
	Premiums      IncomeProfileAmount `mapstructure:"premiums" json:"premiums"`
}

// VATRates are the per-line value added tax rates, as fractions.
type VATRates struct {
	Works       float64 `mapstructure:"works" json:"works" validate:"gte=0,lte=1"`
	SyndicFee   float64 `mapstructure:"syndicFee" json:"syndicFee" validate:"gte=0,lte=1"`
	Insurance   float64 `mapstructure:"insurance" json:"insurance" validate:"gte=0,lte=1"`
	Contingency float64 `mapstructure:"contingency" json:"contingency" validate:"gte=0,lte=1"`
	Engineering float64 `mapstructure:"engineering" json:"engineering" validate:"gte=0,lte=1"`
	NonEnergy   float64 `mapstructure:"nonEnergy" json:"nonEnergy" validate:"gte=0,lte=1"`
}

// FeeRates derive the ancillary cost lines from the works pre-tax amount.
type FeeRates struct {
	SyndicFee          float64 `mapstructure:"syndicFee" json:"syndicFee" validate:"gte=0,lte=1"`
	Insurance          float64 `mapstructure:"insurance" json:"insurance" validate:"gte=0,lte=1"`
	Contingency        float64 `mapstructure:"contingency" json:"contingency" validate:"gte=0,lte=1"`
	EngineeringPerUnit float64 `mapstructure:"engineeringPerUnit" json:"engineeringPerUnit" validate:"gte=0"`
}

// RatingValues maps each energy class to a number.
type RatingValues struct {
	A float64 `mapstructure:"a" json:"A" validate:"gt=0"`
	B float64 `mapstructure:"b" json:"B" validate:"gt=0"`
	C float64 `mapstructure:"c" json:"C" validate:"gt=0"`
	D float64 `mapstructure:"d" json:"D" validate:"gt=0"`
	E float64 `mapstructure:"e" json:"E" validate:"gt=0"`
	F float64 `mapstructure:"f" json:"F" validate:"gt=0"`
	G float64 `mapstructure:"g" json:"G" validate:"gt=0"`
}

// Get returns the value for r, or 0 for an invalid class.
func (v RatingValues) Get(r rating.Rating) float64 {
	switch r {
	case rating.A:
		return v.A
	case rating.B:
		return v.B
	case rating.C:
		return v.C
	case rating.D:
		return v.D
	case rating.E:
		return v.E
	case rating.F:
		return v.F
	case rating.G:
		return v.G
	}
	return 0
}

// RatingDates maps each energy class to an optional calendar date
// (YYYY-MM-DD). An empty string means no date applies.
type RatingDates struct {
	A string `mapstructure:"a" json:"A,omitempty"`
	B string `mapstructure:"b" json:"B,omitempty"`
	C string `mapstructure:"c" json:"C,omitempty"`
	D string `mapstructure:"d" json:"D,omitempty"`
	E string `mapstructure:"e" json:"E,omitempty"`
	F string `mapstructure:"f" json:"F,omitempty"`
	G string `mapstructure:"g" json:"G,omitempty"`
}

func (d RatingDates) raw(r rating.Rating) string {
	switch r {
	case rating.A:
		return d.A
	case rating.B:
		return d.B
	case rating.C:
		return d.C
	case rating.D:
		return d.D
	case rating.E:
		return d.E
	case rating.F:
		return d.F
	case rating.G:
		return d.G
	}
	return ""
}

// Get returns the date for r and whether one is configured.
func (d RatingDates) Get(r rating.Rating) (time.Time, bool) {
	raw := strings.TrimSpace(d.raw(r))
	if raw == "" {
		return time.Time{}, false
	}
	t, err := datetime.ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// GainThresholds are the energy-gain boundaries shared by the grant rate, the
// loan cap and the valuation uplift.
type GainThresholds struct {
	Min             float64 `mapstructure:"min" json:"min" validate:"gt=0,lt=1"`
	HighPerformance float64 `mapstructure:"highPerformance" json:"highPerformance" validate:"gtfield=Min,lte=1"`
}

// GrantRules parameterize the renovation grant.
type GrantRules struct {
	StandardRate          float64         `mapstructure:"standardRate" json:"standardRate" validate:"gte=0,lte=1"`
	HighPerformanceRate   float64         `mapstructure:"highPerformanceRate" json:"highPerformanceRate" validate:"gte=0,lte=1"`
	ExitPovertyBonus      float64         `mapstructure:"exitPovertyBonus" json:"exitPovertyBonus" validate:"gte=0,lte=1"`
	PovertyBands          []rating.Rating `mapstructure:"povertyBands" json:"povertyBands"`
	DecentTarget          rating.Rating   `mapstructure:"decentTarget" json:"decentTarget"`
	FragileBonus          float64         `mapstructure:"fragileBonus" json:"fragileBonus" validate:"gte=0,lte=1"`
	RateCeiling           float64         `mapstructure:"rateCeiling" json:"rateCeiling" validate:"gt=0,lte=1"`
	CapPerResidentialUnit float64         `mapstructure:"capPerResidentialUnit" json:"capPerResidentialUnit" validate:"gte=0"`
	PublicAidCeiling      float64         `mapstructure:"publicAidCeiling" json:"publicAidCeiling" validate:"gt=0,lte=1"`
}

// CertificateRules parameterize the energy-savings certificate bonus.
type CertificateRules struct {
	Rate           float64 `mapstructure:"rate" json:"rate" validate:"gte=0,lte=1"`
	CapPerUnit     float64 `mapstructure:"capPerUnit" json:"capPerUnit" validate:"gte=0"`
	CededIfFragile bool    `mapstructure:"cededIfFragile" json:"cededIfFragile"`
}

// EngineeringRules parameterize the engineering-assistance grant.
type EngineeringRules struct {
	Rate             float64 `mapstructure:"rate" json:"rate" validate:"gte=0,lte=1"`
	SmallBuildingCap float64 `mapstructure:"smallBuildingCap" json:"smallBuildingCap" validate:"gte=0"`
	LargeBuildingCap float64 `mapstructure:"largeBuildingCap" json:"largeBuildingCap" validate:"gte=0"`
	SizeThreshold    int     `mapstructure:"sizeThreshold" json:"sizeThreshold" validate:"gte=1"`
	Floor            float64 `mapstructure:"floor" json:"floor" validate:"gte=0"`
}

// AccessibilityRules parameterize the accessibility grant.
type AccessibilityRules struct {
	Cap float64 `mapstructure:"cap" json:"cap" validate:"gte=0"`
}

// LoanRules parameterize the zero-interest collective loan.
type LoanRules struct {
	CapPerUnitEfficient float64 `mapstructure:"capPerUnitEfficient" json:"capPerUnitEfficient" validate:"gte=0"`
	CapPerUnitBase      float64 `mapstructure:"capPerUnitBase" json:"capPerUnitBase" validate:"gte=0"`
	TermMonths          int     `mapstructure:"termMonths" json:"termMonths" validate:"gte=1"`
	GuaranteeFee        float64 `mapstructure:"guaranteeFee" json:"guaranteeFee" validate:"gte=0"`
	AnnualRate          float64 `mapstructure:"annualRate" json:"annualRate" validate:"gte=0,lte=100"`
}

// DeductionRules parameterize the landlord deficit ceiling.
type DeductionRules struct {
	StandardCeiling     float64 `mapstructure:"standardCeiling" json:"standardCeiling" validate:"gte=0"`
	ElevatedCeiling     float64 `mapstructure:"elevatedCeiling" json:"elevatedCeiling" validate:"gtefield=StandardCeiling"`
	QuoteCutoff         string  `mapstructure:"quoteCutoff" json:"quoteCutoff" validate:"required"`
	DefaultMarginalRate float64 `mapstructure:"defaultMarginalRate" json:"defaultMarginalRate" validate:"gte=0,lte=1"`
}

// ValuationRules parameterize the green-value uplift.
type ValuationRules struct {
	StandardUplift        float64 `mapstructure:"standardUplift" json:"standardUplift" validate:"gte=0,lte=1"`
	HighPerformanceUplift float64 `mapstructure:"highPerformanceUplift" json:"highPerformanceUplift" validate:"gte=0,lte=1"`
}

// InactionRules parameterize the cost-of-inaction projection.
type InactionRules struct {
	HorizonYears          int             `mapstructure:"horizonYears" json:"horizonYears" validate:"gte=1"`
	ConstructionInflation float64         `mapstructure:"constructionInflation" json:"constructionInflation" validate:"gte=0,lte=1"`
	ValueErosion          float64         `mapstructure:"valueErosion" json:"valueErosion" validate:"gte=0,lte=1"`
	GreenValueShare       float64         `mapstructure:"greenValueShare" json:"greenValueShare" validate:"gte=0,lte=1"`
	ErosionBands          []rating.Rating `mapstructure:"erosionBands" json:"erosionBands"`
}

// ComplianceRules hold the rental prohibition calendar and urgency thresholds.
type ComplianceRules struct {
	ProhibitionDates RatingDates `mapstructure:"prohibitionDates" json:"prohibitionDates"`
	HighUrgencyDays  int         `mapstructure:"highUrgencyDays" json:"highUrgencyDays" validate:"gte=0"`
}

// IncomeProfileAmount holds an individual premium per household income profile.
type IncomeProfileAmount struct {
	VeryModest   float64 `mapstructure:"veryModest" json:"veryModest" validate:"gte=0"`
	Modest       float64 `mapstructure:"modest" json:"modest" validate:"gte=0"`
	Intermediate float64 `mapstructure:"intermediate" json:"intermediate" validate:"gte=0"`
	High         float64 `mapstructure:"high" json:"high" validate:"gte=0"`
}

// Default returns the 2026 regulation vintage.
func Default() Config {
	return Config{
		Vintage: "2026",
		VAT: VATRates{
			Works:       0.055,
			SyndicFee:   0.20,
			Insurance:   0.09,
			Contingency: 0.055,
			Engineering: 0.20,
			NonEnergy:   0.10,
		},
		Fees: FeeRates{
			SyndicFee:          0.03,
			Insurance:          0.02,
			Contingency:        0.05,
			EngineeringPerUnit: 600,
		},
		Consumption: RatingValues{A: 50, B: 90, C: 150, D: 210, E: 280, F: 350, G: 450},
		Gain: GainThresholds{
			Min:             0.35,
			HighPerformance: 0.50,
		},
		Grant: GrantRules{
			StandardRate:          0.30,
			HighPerformanceRate:   0.45,
			ExitPovertyBonus:      0,
			PovertyBands:          []rating.Rating{rating.F, rating.G},
			DecentTarget:          rating.D,
			FragileBonus:          0.20,
			RateCeiling:           0.65,
			CapPerResidentialUnit: 25000,
			PublicAidCeiling:      0.80,
		},
		Certificate: CertificateRules{
			Rate:           0.08,
			CapPerUnit:     5000,
			CededIfFragile: true,
		},
		Engineering: EngineeringRules{
			Rate:             0.50,
			SmallBuildingCap: 500,
			LargeBuildingCap: 300,
			SizeThreshold:    20,
			Floor:            3000,
		},
		Accessibility: AccessibilityRules{Cap: 10000},
		Loan: LoanRules{
			CapPerUnitEfficient: 50000,
			CapPerUnitBase:      30000,
			TermMonths:          240,
			GuaranteeFee:        500,
			AnnualRate:          0,
		},
		Deduction: DeductionRules{
			StandardCeiling:     10700,
			ElevatedCeiling:     21400,
			QuoteCutoff:         "2026-12-31",
			DefaultMarginalRate: 0.30,
		},
		Valuation: ValuationRules{
			StandardUplift:        0.08,
			HighPerformanceUplift: 0.12,
		},
		Inaction: InactionRules{
			HorizonYears:          3,
			ConstructionInflation: 0.02,
			ValueErosion:          0.015,
			GreenValueShare:       0.12,
			ErosionBands:          []rating.Rating{rating.F, rating.G},
		},
		Compliance: ComplianceRules{
			ProhibitionDates: RatingDates{
				G: "2025-01-01",
				F: "2028-01-01",
				E: "2034-01-01",
			},
			HighUrgencyDays: 730,
		},
		Premiums: IncomeProfileAmount{
			VeryModest: 3000,
			Modest:     1500,
		},
	}
}

var validate = validator.New()

// Validate checks ranges and the cross-field invariants of the vintage.
func (c Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate regulation %s: %w", c.Vintage, err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		}
	}

	for i := 1; i < len(rating.All); i++ {
		better, worse := rating.All[i-1], rating.All[i]
		if c.Consumption.Get(better) >= c.Consumption.Get(worse) {
			problems = append(problems, fmt.Sprintf("consumption must strictly increase from %s to %s", better, worse))
		}
	}

	if c.Grant.HighPerformanceRate < c.Grant.StandardRate {
		problems = append(problems, "grant highPerformanceRate must not be below standardRate")
	}
	if c.Valuation.HighPerformanceUplift < c.Valuation.StandardUplift {
		problems = append(problems, "valuation highPerformanceUplift must not be below standardUplift")
	}
	if c.Loan.CapPerUnitEfficient < c.Loan.CapPerUnitBase {
		problems = append(problems, "loan capPerUnitEfficient must not be below capPerUnitBase")
	}
	if !c.Grant.DecentTarget.Valid() {
		problems = append(problems, "grant decentTarget must be one of A..G")
	}
	problems = append(problems, checkBands("grant.povertyBands", c.Grant.PovertyBands)...)
	problems = append(problems, checkBands("inaction.erosionBands", c.Inaction.ErosionBands)...)

	if _, err := datetime.ParseDate(c.Deduction.QuoteCutoff); err != nil {
		problems = append(problems, fmt.Sprintf("deduction quoteCutoff: %v", err))
	}
	for _, r := range rating.All {
		raw := strings.TrimSpace(c.Compliance.ProhibitionDates.raw(r))
		if raw == "" {
			continue
		}
		if _, err := datetime.ParseDate(raw); err != nil {
			problems = append(problems, fmt.Sprintf("compliance prohibitionDates %s: %v", r, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid regulation %q: %s", c.Vintage, strings.Join(problems, "; "))
	}
	return nil
}

func checkBands(field string, bands []rating.Rating) []string {
	var problems []string
	for _, b := range bands {
		if !b.Valid() {
			problems = append(problems, fmt.Sprintf("%s contains invalid rating %d", field, int(b)))
		}
	}
	return problems
}

// QuoteCutoffDate returns the parsed deduction cutoff date.
func (c Config) QuoteCutoffDate() (time.Time, error) {
	return datetime.ParseDate(c.Deduction.QuoteCutoff)
}

// InPovertyBand reports whether r is one of the worst bands targeted by the
// exit-from-poverty bonus and the elevated deduction ceiling.
func (c Config) InPovertyBand(r rating.Rating) bool {
	return contains(c.Grant.PovertyBands, r)
}

// ReachesDecentTarget reports whether r is at least the decent target class.
func (c Config) ReachesDecentTarget(r rating.Rating) bool {
	return r.AtLeast(c.Grant.DecentTarget)
}

// ErodesValue reports whether r loses green value while the building waits.
func (c Config) ErodesValue(r rating.Rating) bool {
	return contains(c.Inaction.ErosionBands, r)
}

// Clone returns a deep copy so callers can derive a vintage without sharing
// slices with the original.
func (c Config) Clone() Config {
	out := c
	out.Grant.PovertyBands = append([]rating.Rating(nil), c.Grant.PovertyBands...)
	out.Inaction.ErosionBands = append([]rating.Rating(nil), c.Inaction.ErosionBands...)
	return out
}

func contains(list []rating.Rating, r rating.Rating) bool {
	for _, item := range list {
		if item == r {
			return true
		}
	}
	return false
}
