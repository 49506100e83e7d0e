package categorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"gopkg.in/yaml.v3"
)

// Rule maps a lower-case substring of a description to a category.
type Rule struct {
	Pattern  string
	Category domain.Category
}

// DefaultRules is the built-in keyword table. Order matters: the first
// matching pattern wins, so e.g. "interest" only applies when no earlier
// pattern matched.
var DefaultRules = []Rule{
	{"rent", domain.CategoryRent},
	{"lease", domain.CategoryRent},
	{"apartments", domain.CategoryRent},
	{"landlord", domain.CategoryRent},
	{"property", domain.CategoryRent},
	{"rentals", domain.CategoryRent},

	{"salary", domain.CategoryPayroll},
	{"payroll", domain.CategoryPayroll},
	{"payslip", domain.CategoryPayroll},
	{"epay", domain.CategoryPayroll},
	{"labor", domain.CategoryPayroll},
	{"growing", domain.CategoryPayroll},
	{"harvest", domain.CategoryPayroll},

	{"electric", domain.CategoryUtilities},
	{"hydro", domain.CategoryUtilities},
	{"water", domain.CategoryUtilities},
	{"gas", domain.CategoryUtilities},
	{"utility", domain.CategoryUtilities},
	{"telstra", domain.CategoryUtilities},
	{"vodafone", domain.CategoryUtilities},
	{"airtel", domain.CategoryUtilities},
	{"idea", domain.CategoryUtilities},
	{"videocon", domain.CategoryUtilities},
	{"tata power", domain.CategoryUtilities},
	{"dth", domain.CategoryUtilities},
	{"internet", domain.CategoryUtilities},

	{"account fee", domain.CategoryFees},
	{"annual debit card", domain.CategoryFees},
	{"service charge", domain.CategoryFees},
	{"analysis service", domain.CategoryFees},

	{"transfer", domain.CategoryTransfer},

	{"loan", domain.CategoryLoan},
	{"emi", domain.CategoryLoan},
	{"installment", domain.CategoryLoan},
	{"disbursal", domain.CategoryLoan},
	{"finnovation", domain.CategoryLoan},
	{"principal", domain.CategoryLoan},
	{"interest", domain.CategoryLoan},
}

// RulesFile is the YAML layout of a custom keyword table.
//
//	categories:
//	  - name: Rent
//	    keywords: [rent, lease]
type RulesFile struct {
	Categories []RuleGroup `yaml:"categories"`
}

// RuleGroup lists the keywords of one category.
type RuleGroup struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// LoadRules reads a keyword table from a YAML file. Groups and keywords are
// flattened in file order.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadRules: reading %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules parses a YAML keyword table.
func ParseRules(data []byte) ([]Rule, error) {
	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ParseRules: unmarshal: %w", err)
	}

	var rules []Rule
	for _, g := range file.Categories {
		cat, err := parseCategory(g.Name)
		if err != nil {
			return nil, fmt.Errorf("ParseRules: %w", err)
		}
		for _, kw := range g.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			rules = append(rules, Rule{Pattern: kw, Category: cat})
		}
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("ParseRules: no keywords defined")
	}
	return rules, nil
}

func parseCategory(name string) (domain.Category, error) {
	switch c := domain.Category(strings.TrimSpace(name)); c {
	case domain.CategoryRent, domain.CategoryPayroll, domain.CategoryUtilities,
		domain.CategoryFees, domain.CategoryTransfer, domain.CategoryLoan, domain.CategoryOther:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", name)
	}
}
