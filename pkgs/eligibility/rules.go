package eligibility

import (
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultCollectionName is the display name used when a collection rule has no name.
const DefaultCollectionName = "NFT"

// CollectionRule awards Points once for holding any object whose type
// contains Key.
type CollectionRule struct {
	Key    string `yaml:"key"`
	Name   string `yaml:"name"`
	Points int64  `yaml:"points"`
}

// DisplayName returns Name, falling back to DefaultCollectionName.
func (c CollectionRule) DisplayName() string {
	if c.Name == "" {
		return DefaultCollectionName
	}
	return c.Name
}

// TokenRule maps a coin type to the balance range scored by TokenPoints.
// Min and Max are decimal strings in base units.
type TokenRule struct {
	CoinType string `yaml:"coin_type"`
	Name     string `yaml:"name"`
	Min      string `yaml:"min"`
	Max      string `yaml:"max"`

	lo, hi *big.Int
}

// Bounds returns the parsed range.
func (t TokenRule) Bounds() (lo, hi *big.Int) {
	return t.lo, t.hi
}

// ListRule is an off-chain address list whose members receive Bonus.
type ListRule struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Bonus int64  `yaml:"bonus"`
}

// TestnetRule awards Bonus for holding a testnet object of Type and an extra
// Stacked.Bonus when the wallet is also on the Stacked list.
type TestnetRule struct {
	Type    string   `yaml:"type"`
	Bonus   int64    `yaml:"bonus"`
	Stacked ListRule `yaml:"stacked"`
}

// Rules is the static scoring table.
type Rules struct {
	Collections        []CollectionRule `yaml:"collections"`
	Tokens             []TokenRule      `yaml:"tokens"`
	NameServiceType    string           `yaml:"name_service_type"`
	NameServiceBonus   int64            `yaml:"name_service_bonus"`
	Lists              []ListRule       `yaml:"lists"`
	Testnet            TestnetRule      `yaml:"testnet"`
	ActivityMaxObjects int64            `yaml:"activity_max_objects"`
	ActivityMaxBonus   int64            `yaml:"activity_max_bonus"`
	MaxTypeLength      int              `yaml:"max_type_length"`
	GlobalCap          int64            `yaml:"global_cap"`
}

// DefaultRules returns the production table.
func DefaultRules() *Rules {
	r := &Rules{
		Collections: []CollectionRule{
			{Key: "::suifrens::SuiFren", Name: "SuiFrens", Points: 500},
			{Key: "::capy::Capy", Name: "Capy", Points: 300},
			{Key: "::bullshark::Bullshark", Name: "Bullsharks", Points: 300},
			{Key: "::prime_machin::PrimeMachin", Name: "Prime Machin", Points: 400},
			{Key: "::rootlet::Rootlet", Name: "Rootlets", Points: 400},
			{Key: "::fuddies::Fuddies", Name: "Fuddies", Points: 250},
			{Key: "::doubleup::Citizen", Name: "DoubleUp Citizens", Points: 250},
			{Key: "::kumo::Kumo", Name: "Kumo", Points: 200},
			{Key: "::tails_exp::TailsExp", Name: "Tails by Typus", Points: 200},
			{Key: "::cosmocadia::Cosmocadia", Name: "Cosmocadia", Points: 200},
		},
		Tokens: []TokenRule{
			{CoinType: "0x2::sui::SUI", Name: "SUI", Min: "62000000000", Max: "1200000000000"},
		},
		NameServiceType:  "::suins_registration::SuinsRegistration",
		NameServiceBonus: 200,
		Lists: []ListRule{
			{Name: "og", Bonus: 750},
			{Name: "whitelist", Bonus: 750},
		},
		Testnet: TestnetRule{
			Type:    "::nft::City",
			Bonus:   1000,
			Stacked: ListRule{Name: "testnet-active", Bonus: 1000},
		},
		ActivityMaxObjects: 500,
		ActivityMaxBonus:   750,
		MaxTypeLength:      240,
		GlobalCap:          20000,
	}
	if err := r.compile(); err != nil {
		panic(err)
	}
	return r
}

// LoadRules reads a rules table from a YAML file. Zero-valued limits fall
// back to the defaults.
func LoadRules(path string) (*Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(raw)
}

// ParseRules decodes a YAML rules table.
func ParseRules(raw []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("rules.yaml: %w", err)
	}

	def := DefaultRules()
	if r.ActivityMaxObjects == 0 {
		r.ActivityMaxObjects = def.ActivityMaxObjects
	}
	if r.ActivityMaxBonus == 0 {
		r.ActivityMaxBonus = def.ActivityMaxBonus
	}
	if r.MaxTypeLength == 0 {
		r.MaxTypeLength = def.MaxTypeLength
	}
	if r.GlobalCap == 0 {
		r.GlobalCap = def.GlobalCap
	}

	if err := r.compile(); err != nil {
		return nil, err
	}
	return &r, nil
}

// compile parses token bounds and rejects rules that cannot score.
func (r *Rules) compile() error {
	for i, c := range r.Collections {
		if c.Key == "" {
			return fmt.Errorf("collection rule %d has an empty key", i)
		}
	}
	for i := range r.Tokens {
		t := &r.Tokens[i]
		lo, ok := new(big.Int).SetString(t.Min, 10)
		if !ok {
			return fmt.Errorf("token %s: invalid min %q", t.CoinType, t.Min)
		}
		hi, ok := new(big.Int).SetString(t.Max, 10)
		if !ok {
			return fmt.Errorf("token %s: invalid max %q", t.CoinType, t.Max)
		}
		if hi.Cmp(lo) <= 0 {
			return fmt.Errorf("token %s: max must exceed min", t.CoinType)
		}
		t.lo, t.hi = lo, hi
	}
	return nil
}

// AllLists returns every list the scorer may consult, including the stacked
// testnet list.
func (r *Rules) AllLists() []ListRule {
	lists := make([]ListRule, 0, len(r.Lists)+1)
	lists = append(lists, r.Lists...)
	if r.Testnet.Stacked.Name != "" {
		lists = append(lists, r.Testnet.Stacked)
	}
	return lists
}

// WithListURLs returns a copy of the rules with list URLs replaced by the
// entries in urls, keyed by list name.
func (r *Rules) WithListURLs(urls map[string]string) *Rules {
	out := *r
	out.Lists = make([]ListRule, len(r.Lists))
	for i, l := range r.Lists {
		if u, ok := urls[l.Name]; ok {
			l.URL = u
		}
		out.Lists[i] = l
	}
	if u, ok := urls[r.Testnet.Stacked.Name]; ok {
		out.Testnet.Stacked.URL = u
	}
	return &out
}

// MatchCollection returns the first collection rule whose key is contained in
// objectType.
func (r *Rules) MatchCollection(objectType string) (CollectionRule, bool) {
	if r.MaxTypeLength > 0 && len(objectType) > r.MaxTypeLength {
		return CollectionRule{}, false
	}
	for _, c := range r.Collections {
		if containsType(objectType, c.Key) {
			return c, true
		}
	}
	return CollectionRule{}, false
}
