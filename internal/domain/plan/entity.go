package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownPlan    = errors.New("unknown plan")
	ErrInvalidCatalog = errors.New("invalid plan catalog")
)

// Plan is a purchasable credit pack. Amount is in the currency's minor unit.
type Plan struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Amount  int64  `json:"amount" yaml:"amount"`
	Credits int    `json:"credits" yaml:"credits"`
}

// Catalog is the closed set of plans offered for sale. It is built once at
// startup and never mutated.
type Catalog struct {
	currency string
	subunit  int64
	plans    map[string]Plan
	ordered  []Plan
}

// NewCatalog validates plans and builds a catalog. subunit is the number of
// minor units per major unit (Paystack uses 100 for XOF).
func NewCatalog(currency string, subunit int64, plans []Plan) (*Catalog, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrInvalidCatalog)
	}
	if subunit <= 0 {
		return nil, fmt.Errorf("%w: subunit must be positive", ErrInvalidCatalog)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: no plans", ErrInvalidCatalog)
	}

	c := &Catalog{
		currency: currency,
		subunit:  subunit,
		plans:    make(map[string]Plan, len(plans)),
	}
	for i, p := range plans {
		p.ID = strings.TrimSpace(p.ID)
		switch {
		case p.ID == "":
			return nil, fmt.Errorf("%w: plans[%d]: id is required", ErrInvalidCatalog, i)
		case p.Amount <= 0:
			return nil, fmt.Errorf("%w: plan %s: amount must be positive", ErrInvalidCatalog, p.ID)
		case p.Credits <= 0:
			return nil, fmt.Errorf("%w: plan %s: credits must be positive", ErrInvalidCatalog, p.ID)
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate plan %s", ErrInvalidCatalog, p.ID)
		}
		if p.Name == "" {
			p.Name = "Pack " + strings.ToUpper(p.ID[:1]) + p.ID[1:]
		}
		c.plans[p.ID] = p
		c.ordered = append(c.ordered, p)
	}

	sort.SliceStable(c.ordered, func(i, j int) bool {
		return c.ordered[i].Amount < c.ordered[j].Amount
	})

	return c, nil
}

// DefaultCatalog is used when no plans file is configured.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog("XOF", 100, []Plan{
		{ID: "essentiel", Name: "Pack Essentiel", Amount: 5000, Credits: 25},
		{ID: "pro", Name: "Pack Pro", Amount: 10000, Credits: 60},
		{ID: "premium", Name: "Pack Premium", Amount: 20000, Credits: 150},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Get looks a plan up by id.
func (c *Catalog) Get(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p, nil
}

// List returns plans ordered by price.
func (c *Catalog) List() []Plan {
	out := make([]Plan, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// IDs returns plan ids ordered by price.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.ordered))
	for i, p := range c.ordered {
		ids[i] = p.ID
	}
	return ids
}

func (c *Catalog) Currency() string { return c.currency }

// MajorAmount converts minor units to the major unit.
func (c *Catalog) MajorAmount(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(c.subunit))
}

// FormatAmount renders a minor-unit amount, e.g. "50 XOF".
func (c *Catalog) FormatAmount(minor int64) string {
	return c.MajorAmount(minor).String() + " " + c.currency
}
