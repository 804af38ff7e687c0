package scraper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Patterns holds the ordered structural lookup selectors the scraper
// uses against the host page. Each list is tried in priority order and
// the first selector that matches wins; a total miss yields an empty
// result, never an error. The lists are data, not code: host-page drift
// is handled by editing a YAML override, not by a rebuild.
type Patterns struct {
	// Result cards in the feed.
	Cards []string `yaml:"cards"`

	// Fields scoped to one card's subtree.
	CardName        []string `yaml:"card_name"`
	CardType        []string `yaml:"card_type"`
	CardAddress     []string `yaml:"card_address"`
	CardPhone       []string `yaml:"card_phone"`
	CardWebsite     []string `yaml:"card_website"`
	CardRating      []string `yaml:"card_rating"`
	CardReviews     []string `yaml:"card_reviews"`
	CardStatus      []string `yaml:"card_status"`
	CardHours       []string `yaml:"card_hours"`
	CardDescription []string `yaml:"card_description"`
	CardServices    []string `yaml:"card_services"`

	// The card's navigation affordance.
	ClickTargets []string `yaml:"click_targets"`

	// The detail overlay and fields read from the global document.
	DetailPanel    []string `yaml:"detail_panel"`
	DetailName     []string `yaml:"detail_name"`
	DetailType     []string `yaml:"detail_type"`
	DetailAddress  []string `yaml:"detail_address"`
	DetailPhone    []string `yaml:"detail_phone"`
	DetailWebsite  []string `yaml:"detail_website"`
	DetailRating   []string `yaml:"detail_rating"`
	DetailReviews  []string `yaml:"detail_reviews"`
	DetailStatus   []string `yaml:"detail_status"`
	DetailHours    []string `yaml:"detail_hours"`
	DetailServices []string `yaml:"detail_services"`

	// The results-list scroll container, plus a broader candidate set
	// swept with the same overflow test when the primary list misses.
	ScrollRegions  []string `yaml:"scroll_regions"`
	ScrollFallback []string `yaml:"scroll_fallback"`

	// Evidence that the host surface has initialized at all.
	Ready []string `yaml:"ready"`
}

// DefaultPatterns returns the selector vocabulary observed on the
// current Google Maps results layout.
func DefaultPatterns() Patterns {
	return Patterns{
		Cards: []string{
			".Nv2PK.tH5CWc.THOPZb",
			".Nv2PK.THOPZb.CpccDe",
			".Nv2PK",
			".tH5CWc",
			".THOPZb",
		},

		CardName: []string{
			".qBF1Pd.fontHeadlineSmall.kiIehc.Hi2drd",
			".qBF1Pd",
			"h1.DUwDvf.lfPIob",
		},
		CardType: []string{
			"button.DkEaL",
			".W4Efsd span span",
		},
		CardAddress: []string{
			".W4Efsd span:last-child",
			".Io6YTe.fontBodyMedium.kR99db.fdkmkc",
			".Io6YTe",
		},
		CardPhone: []string{
			".UsdlK",
		},
		CardWebsite: []string{
			".lcr4fd",
			`a[href*="http"] .Io6YTe`,
		},
		CardRating: []string{
			".MW4etd",
			".fontDisplayLarge",
		},
		CardReviews: []string{
			".UY7F9",
			"button.GQjSyb span",
		},
		CardStatus: []string{
			`.W4Efsd span span[style*="color"]`,
			`span[style*="color"]`,
		},
		CardHours: []string{
			`span[style*="color"] + span`,
			".MkV9 span span",
		},
		CardDescription: []string{
			".W4Efsd span span",
		},
		CardServices: []string{
			".TRbhbd + div",
		},

		ClickTargets: []string{
			"a.hfpxzc",
			`a[href*="/maps/place/"]`,
			`a[jsaction*="click"]`,
		},

		DetailPanel: []string{
			".m6QErb.DxyBCb.kA9KIf.dS8AEf.XiKgde",
			`[role="dialog"]`,
			".pane",
			".m6QErb.XiKgde",
			".m6QErb.Pf6ghf.XiKgde",
		},
		DetailName: []string{
			"h1.DUwDvf.lfPIob",
			".qBF1Pd.fontHeadlineSmall.kiIehc.Hi2drd",
		},
		DetailType: []string{
			"button.DkEaL",
		},
		DetailAddress: []string{
			".Io6YTe.fontBodyMedium.kR99db.fdkmkc",
		},
		DetailPhone: []string{
			`button[data-item-id*="phone"] .Io6YTe`,
		},
		DetailWebsite: []string{
			`a[data-item-id="authority"] .Io6YTe`,
		},
		DetailRating: []string{
			".fontDisplayLarge",
		},
		DetailReviews: []string{
			"button.GQjSyb span",
		},
		DetailStatus: []string{
			`span[style*="color"]`,
		},
		DetailHours: []string{
			`span[style*="color"] + span`,
		},
		DetailServices: []string{
			".TRbhbd + div",
		},

		ScrollRegions: []string{
			`.e07Vkf.kA9KIf[tabindex="-1"]`,
			".aIFcqe",
			".m6QErb.DxyBCb.kA9KIf.dS8AEf.XiKgde.ecceSd",
			".m6QErb.DxyBCb.kA9KIf.dS8AEf.XiKgde",
			`.m6QErb[role="feed"]`,
			".m6QErb.XiKgde.z7i0C",
		},
		ScrollFallback: []string{
			".m6QErb",
			".e07Vkf",
			".aIFcqe",
		},

		Ready: []string{
			`input[aria-label*="Search"]`,
			`input[placeholder*="Search"]`,
			".Nv2PK",
			".tH5CWc",
			".THOPZb",
		},
	}
}

// LoadPatterns reads a YAML override file on top of the defaults. Lists
// absent from the file keep their default contents.
func LoadPatterns(path string) (Patterns, error) {
	p := DefaultPatterns()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read selectors file: %w", err)
	}
	var override Patterns
	if err := yaml.Unmarshal(data, &override); err != nil {
		return p, fmt.Errorf("parse selectors file %q: %w", path, err)
	}
	p.merge(override)
	return p, nil
}

func (p *Patterns) merge(o Patterns) {
	replace := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	replace(&p.Cards, o.Cards)
	replace(&p.CardName, o.CardName)
	replace(&p.CardType, o.CardType)
	replace(&p.CardAddress, o.CardAddress)
	replace(&p.CardPhone, o.CardPhone)
	replace(&p.CardWebsite, o.CardWebsite)
	replace(&p.CardRating, o.CardRating)
	replace(&p.CardReviews, o.CardReviews)
	replace(&p.CardStatus, o.CardStatus)
	replace(&p.CardHours, o.CardHours)
	replace(&p.CardDescription, o.CardDescription)
	replace(&p.CardServices, o.CardServices)
	replace(&p.ClickTargets, o.ClickTargets)
	replace(&p.DetailPanel, o.DetailPanel)
	replace(&p.DetailName, o.DetailName)
	replace(&p.DetailType, o.DetailType)
	replace(&p.DetailAddress, o.DetailAddress)
	replace(&p.DetailPhone, o.DetailPhone)
	replace(&p.DetailWebsite, o.DetailWebsite)
	replace(&p.DetailRating, o.DetailRating)
	replace(&p.DetailReviews, o.DetailReviews)
	replace(&p.DetailStatus, o.DetailStatus)
	replace(&p.DetailHours, o.DetailHours)
	replace(&p.DetailServices, o.DetailServices)
	replace(&p.ScrollRegions, o.ScrollRegions)
	replace(&p.ScrollFallback, o.ScrollFallback)
	replace(&p.Ready, o.Ready)
}
