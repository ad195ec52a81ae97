package kyc

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"agro-kyc/internal/models"

	"gopkg.in/yaml.v3"
)

// PatternRule is one named regular expression as it appears in configuration.
type PatternRule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

type RuleSetConfig struct {
	Patterns []PatternRule `yaml:"patterns"`
	Required []string      `yaml:"required"`
}

// RulesConfig is the externalised rule table. Any section present in a
// rules file replaces the matching default section.
type RulesConfig struct {
	DocumentTypes    map[models.DocumentType]RuleSetConfig `yaml:"document_types"`
	FraudIndicators  []PatternRule                         `yaml:"fraud_indicators"`
	RoleRequirements map[models.Role][]models.DocumentType `yaml:"role_requirements"`
}

type compiledPattern struct {
	name string
	re   *regexp.Regexp
}

// RuleSet is the compiled rule set of one document type.
type RuleSet struct {
	patterns []compiledPattern
	required map[string]struct{}
}

// Rules is the compiled, read-only rule table shared by the pipeline stages.
type Rules struct {
	ruleSets     map[models.DocumentType]*RuleSet
	indicators   []compiledPattern
	requirements map[models.Role][]models.DocumentType
}

// DefaultRulesConfig returns the built-in rule table. The patterns cover
// Brazilian documents (Portuguese labels) and their English equivalents.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		DocumentTypes: map[models.DocumentType]RuleSetConfig{
			models.DocumentTypeIdentity: {
				Patterns: []PatternRule{
					{Name: "name", Pattern: `(?i)\b(nome|name)\b`},
					{Name: "document_number", Pattern: `\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b|\b\d{1,2}\.\d{3}\.\d{3}-?[\dXx]\b`},
					{Name: "birth_date", Pattern: `(?i)(data de nascimento|date of birth|\bnascimento\b|\bdob\b)`},
					{Name: "issuer", Pattern: `(?i)(registro geral|carteira de identidade|identity card|rep[úu]blica federativa do brasil|secretaria de seguran[çc]a)`},
					{Name: "parents", Pattern: `(?i)\b(filia[çc][ãa]o|father|mother)\b`},
				},
				Required: []string{"name", "document_number", "birth_date"},
			},
			models.DocumentTypeProofOfAddress: {
				Patterns: []PatternRule{
					{Name: "address", Pattern: `(?i)\b(endere[çc]o|address|rua|avenida|rodovia|estrada|street|road)\b`},
					{Name: "postal_code", Pattern: `(?i)\b(cep|zip|postal code)\b|\b\d{5}-\d{3}\b`},
					{Name: "holder", Pattern: `(?i)\b(titular|cliente|customer|account holder|nome|name)\b`},
					{Name: "issue_date", Pattern: `\b\d{2}/\d{2}/\d{4}\b`},
					{Name: "utility_provider", Pattern: `(?i)(conta de (luz|[áa]gua|g[áa]s|energia)|\bfatura\b|\binvoice\b|utility bill|bank statement|\bextrato\b)`},
				},
				Required: []string{"address", "postal_code", "holder"},
			},
			models.DocumentTypeDriverLicense: {
				Patterns: []PatternRule{
					{Name: "license_title", Pattern: `(?i)(carteira nacional de habilita[çc][ãa]o|\bcnh\b|driver'?s? licen[cs]e)`},
					{Name: "registration_number", Pattern: `\b\d{11}\b`},
					{Name: "validity", Pattern: `(?i)\b(validade|valid until|expiry|expires)\b`},
					{Name: "category", Pattern: `(?i)\b(categoria|category|cat hab)\b`},
					{Name: "name", Pattern: `(?i)\b(nome|name)\b`},
				},
				Required: []string{"license_title", "registration_number", "validity"},
			},
			models.DocumentTypeVehicleRegistration: {
				Patterns: []PatternRule{
					{Name: "title", Pattern: `(?i)(certificado de registro( e licenciamento)? de ve[íi]culo|\bcrlv\b|\bcrv\b|vehicle registration)`},
					{Name: "plate", Pattern: `(?i)\b[a-z]{3}-?\d[a-z0-9]\d{2}\b`},
					{Name: "renavam", Pattern: `(?i)\brenavam\b`},
					{Name: "chassis", Pattern: `(?i)\b(chassi|chassis|vin)\b`},
					{Name: "owner", Pattern: `(?i)\b(propriet[áa]rio|owner|nome|name)\b`},
				},
				Required: []string{"title", "plate", "renavam"},
			},
			models.DocumentTypeBusinessRegistration: {
				Patterns: []PatternRule{
					{Name: "cnpj", Pattern: `\b\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}\b`},
					{Name: "title", Pattern: `(?i)(cadastro nacional da pessoa jur[íi]dica|comprovante de inscri[çc][ãa]o|business registration|certificate of incorporation|contrato social)`},
					{Name: "company_name", Pattern: `(?i)(raz[ãa]o social|nome empresarial|company name|business name)`},
					{Name: "opening_date", Pattern: `(?i)(data de abertura|date of incorporation|incorporated on)`},
					{Name: "rural_producer", Pattern: `(?i)(inscri[çc][ãa]o estadual|produtor rural|state registration)`},
				},
				Required: []string{"cnpj", "title", "company_name"},
			},
		},
		FraudIndicators: []PatternRule{
			{Name: "sample", Pattern: `\bsample\b|\bamostra\b`},
			{Name: "specimen", Pattern: `\bspecimen\b|\besp[ée]cime\b`},
			{Name: "test", Pattern: `\btest(e|ing)?\b`},
			{Name: "copy", Pattern: `\bcopy\b|\bc[óo]pia\b`},
			{Name: "scan", Pattern: `\bscan(ned)?\b|\bdigitalizad[oa]\b`},
			{Name: "placeholder", Pattern: `lorem ipsum|\bplaceholder\b|\bexample\b|\bexemplo\b`},
			{Name: "void", Pattern: `\bvoid\b|\bsem valor\b`},
			{Name: "fake", Pattern: `\bfake\b|\bdummy\b`},
		},
		RoleRequirements: map[models.Role][]models.DocumentType{
			models.RoleBuyer: {
				models.DocumentTypeIdentity,
				models.DocumentTypeProofOfAddress,
			},
			models.RoleProducer: {
				models.DocumentTypeIdentity,
				models.DocumentTypeProofOfAddress,
				models.DocumentTypeBusinessRegistration,
			},
			models.RoleDriver: {
				models.DocumentTypeIdentity,
				models.DocumentTypeProofOfAddress,
				models.DocumentTypeDriverLicense,
				models.DocumentTypeVehicleRegistration,
			},
			models.RoleTransporter: {
				models.DocumentTypeIdentity,
				models.DocumentTypeProofOfAddress,
				models.DocumentTypeBusinessRegistration,
				models.DocumentTypeVehicleRegistration,
			},
			models.RoleAdmin: {},
		},
	}
}

// DefaultRules compiles DefaultRulesConfig. The built-in table is known to
// compile, so a failure here is a programming error.
func DefaultRules() *Rules {
	rules, err := CompileRules(DefaultRulesConfig())
	if err != nil {
		panic(fmt.Sprintf("kyc: default rules do not compile: %v", err))
	}
	return rules
}

// LoadRules compiles the default rules overlaid with the YAML file at path.
// An empty path yields the defaults.
func LoadRules(path string) (*Rules, error) {
	cfg := DefaultRulesConfig()
	if path == "" {
		return CompileRules(cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var override RulesConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	for docType, set := range override.DocumentTypes {
		cfg.DocumentTypes[docType] = set
	}
	if len(override.FraudIndicators) > 0 {
		cfg.FraudIndicators = override.FraudIndicators
	}
	for role, reqs := range override.RoleRequirements {
		cfg.RoleRequirements[role] = reqs
	}

	return CompileRules(cfg)
}

// CompileRules validates and compiles a rule table.
func CompileRules(cfg RulesConfig) (*Rules, error) {
	rules := &Rules{
		ruleSets:     make(map[models.DocumentType]*RuleSet, len(cfg.DocumentTypes)),
		requirements: make(map[models.Role][]models.DocumentType, len(cfg.RoleRequirements)),
	}

	for docType, setCfg := range cfg.DocumentTypes {
		set, err := compileRuleSet(setCfg)
		if err != nil {
			return nil, fmt.Errorf("rule set %q: %w", docType, err)
		}
		rules.ruleSets[docType] = set
	}

	for _, ind := range cfg.FraudIndicators {
		pattern := ind.Pattern
		if !strings.HasPrefix(pattern, "(?i)") {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("fraud indicator %q: %w", ind.Name, err)
		}
		rules.indicators = append(rules.indicators, compiledPattern{name: ind.Name, re: re})
	}

	for role, reqs := range cfg.RoleRequirements {
		rules.requirements[role] = append([]models.DocumentType(nil), reqs...)
	}

	return rules, nil
}

func compileRuleSet(cfg RuleSetConfig) (*RuleSet, error) {
	set := &RuleSet{required: make(map[string]struct{}, len(cfg.Required))}
	names := make(map[string]struct{}, len(cfg.Patterns))

	for _, p := range cfg.Patterns {
		if _, dup := names[p.Name]; dup {
			return nil, fmt.Errorf("duplicate pattern name %q", p.Name)
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p.Name, err)
		}
		names[p.Name] = struct{}{}
		set.patterns = append(set.patterns, compiledPattern{name: p.Name, re: re})
	}

	for _, req := range cfg.Required {
		if _, ok := names[req]; !ok {
			return nil, fmt.Errorf("required category %q has no pattern", req)
		}
		set.required[req] = struct{}{}
	}

	return set, nil
}

// RuleSet returns the compiled rule set for a document type.
func (r *Rules) RuleSet(docType models.DocumentType) (*RuleSet, bool) {
	set, ok := r.ruleSets[docType]
	return set, ok
}

// Requirements returns the ordered required document types of a role.
func (r *Rules) Requirements(role models.Role) ([]models.DocumentType, error) {
	reqs, ok := r.requirements[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return reqs, nil
}

// HasRole reports whether a role has a requirement entry.
func (r *Rules) HasRole(role models.Role) bool {
	_, ok := r.requirements[role]
	return ok
}
