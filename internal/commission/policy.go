// Package commission splits a gross payment between the platform, the artist
// and up to three levels of referring affiliates. It performs no I/O besides
// loading the rate table.
package commission

import (
	"errors"
	"fmt"
	"os"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const MaxLevels = 3

var ErrInvalidPolicy = errors.New("invalid commission policy")

// Chain holds affiliate ids nearest referrer first; an empty slot means no referrer at that level.
type Chain [MaxLevels]string

func (c Chain) Depth() int {
	n := 0
	for _, id := range c {
		if id != "" {
			n++
		}
	}
	return n
}

type Rates struct {
	PlatformFee decimal.Decimal
	Levels      []decimal.Decimal
}

type Policy struct {
	Ticket Rates
	Tip    Rates
	// ArtistPayoutShare is the flat share used by the scheduled batch payout.
	ArtistPayoutShare decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		Ticket: Rates{
			PlatformFee: decimal.RequireFromString("0.05"),
			Levels: []decimal.Decimal{
				decimal.RequireFromString("0.025"),
				decimal.RequireFromString("0.015"),
				decimal.RequireFromString("0.01"),
			},
		},
		Tip: Rates{
			PlatformFee: decimal.RequireFromString("0.10"),
		},
		ArtistPayoutShare: decimal.RequireFromString("0.70"),
	}
}

type Share struct {
	AffiliateID string
	Level       int
	Rate        decimal.Decimal
	Amount      int64
}

type Breakdown struct {
	Gross         int64
	ArtistShare   int64
	PlatformShare int64
	Commissions   []Share
}

func (b Breakdown) CommissionTotal() int64 {
	var sum int64
	for _, c := range b.Commissions {
		sum += c.Amount
	}
	return sum
}

func (p Policy) ForTicket(gross int64, chain Chain) (Breakdown, error) {
	return Split(gross, p.Ticket, chain)
}

// ForTip never pays affiliates.
func (p Policy) ForTip(gross int64) (Breakdown, error) {
	return Split(gross, p.Tip, Chain{})
}

// Split deducts the platform fee and each present level's commission from gross;
// the artist receives the remainder, so the parts always add up to gross.
func Split(gross int64, rates Rates, chain Chain) (Breakdown, error) {
	if gross <= 0 {
		return Breakdown{}, domain.ErrInvalidAmount
	}

	b := Breakdown{
		Gross:         gross,
		PlatformShare: applyRate(gross, rates.PlatformFee),
	}
	for i, affiliateID := range chain {
		if affiliateID == "" || i >= len(rates.Levels) {
			continue
		}
		b.Commissions = append(b.Commissions, Share{
			AffiliateID: affiliateID,
			Level:       i + 1,
			Rate:        rates.Levels[i],
			Amount:      applyRate(gross, rates.Levels[i]),
		})
	}

	b.ArtistShare = gross - b.PlatformShare - b.CommissionTotal()
	if b.ArtistShare < 0 {
		// rounding on near-total rates; the platform covers the shortfall
		b.PlatformShare += b.ArtistShare
		b.ArtistShare = 0
	}
	return b, nil
}

// PayoutSplit is the flat batch split: the artist share is rounded, the platform keeps the rest.
func (p Policy) PayoutSplit(gross int64) (artist, platform int64) {
	artist = applyRate(gross, p.ArtistPayoutShare)
	return artist, gross - artist
}

func applyRate(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}

func (p Policy) Validate() error {
	for name, r := range map[string]Rates{"ticket": p.Ticket, "tip": p.Tip} {
		if len(r.Levels) > MaxLevels {
			return fmt.Errorf("%w: %s has %d levels, max %d", ErrInvalidPolicy, name, len(r.Levels), MaxLevels)
		}
		total := r.PlatformFee
		if err := checkRate(name+".platform_fee", r.PlatformFee); err != nil {
			return err
		}
		for i, lvl := range r.Levels {
			if err := checkRate(fmt.Sprintf("%s.levels[%d]", name, i), lvl); err != nil {
				return err
			}
			total = total.Add(lvl)
		}
		if total.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %s rates add up to %s", ErrInvalidPolicy, name, total)
		}
	}
	return checkRate("artist_payout_share", p.ArtistPayoutShare)
}

func checkRate(name string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s=%s outside [0,1]", ErrInvalidPolicy, name, rate)
	}
	return nil
}

type ratesFile struct {
	PlatformFee *string  `yaml:"platform_fee"`
	Levels      []string `yaml:"levels"`
}

type policyFile struct {
	Ticket            *ratesFile `yaml:"ticket"`
	Tip               *ratesFile `yaml:"tip"`
	ArtistPayoutShare *string    `yaml:"artist_payout_share"`
}

// Load reads a YAML rate table over the defaults. An empty path returns the defaults.
func Load(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, p.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read commission policy: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Policy, error) {
	p := DefaultPolicy()

	var f policyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Policy{}, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	var err error
	if f.Ticket != nil {
		if p.Ticket, err = f.Ticket.apply(p.Ticket); err != nil {
			return Policy{}, err
		}
	}
	if f.Tip != nil {
		if p.Tip, err = f.Tip.apply(p.Tip); err != nil {
			return Policy{}, err
		}
	}
	if f.ArtistPayoutShare != nil {
		if p.ArtistPayoutShare, err = parseRate(*f.ArtistPayoutShare); err != nil {
			return Policy{}, err
		}
	}
	return p, p.Validate()
}

func (f *ratesFile) apply(r Rates) (Rates, error) {
	var err error
	if f.PlatformFee != nil {
		if r.PlatformFee, err = parseRate(*f.PlatformFee); err != nil {
			return Rates{}, err
		}
	}
	if f.Levels != nil {
		r.Levels = make([]decimal.Decimal, 0, len(f.Levels))
		for _, s := range f.Levels {
			lvl, err := parseRate(s)
			if err != nil {
				return Rates{}, err
			}
			r.Levels = append(r.Levels, lvl)
		}
	}
	return r, nil
}

func parseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: rate %q: %w", ErrInvalidPolicy, s, err)
	}
	return d, nil
}
