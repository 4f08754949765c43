package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes every top-level block a model file may contain.
type fileRoot struct {
	Quantities  []*quantityBlock   `hcl:"quantity,block"`
	Flows       []*flowBlock       `hcl:"flow,block"`
	Conversions []*conversionBlock `hcl:"conversion,block"`
	Processes   []*processBlock    `hcl:"process,block"`
	Fragments   []*fragmentBlock   `hcl:"fragment,block"`
	Remain      hcl.Body           `hcl:",remain"`
}

type quantityBlock struct {
	Name   string `hcl:"name,label"`
	Unit   string `hcl:"unit"`
	Method bool   `hcl:"method,optional"`
}

type flowBlock struct {
	Name        string         `hcl:"name,label"`
	Quantity    string         `hcl:"quantity"`
	Elementary  bool           `hcl:"elementary,optional"`
	Compartment []string       `hcl:"compartment,optional"`
	Factors     []*factorBlock `hcl:"factor,block"`
}

type factorBlock struct {
	Quantity string  `hcl:"quantity,label"`
	Value    float64 `hcl:"value"`
	Location string  `hcl:"location,optional"`
}

type conversionBlock struct {
	Flow     string  `hcl:"flow,label"`
	Quantity string  `hcl:"quantity,label"`
	Value    float64 `hcl:"value"`
}

type processBlock struct {
	Name            string           `hcl:"name,label"`
	Location        string           `hcl:"location,optional"`
	Classifications []string         `hcl:"classifications,optional"`
	Exchanges       []*exchangeBlock `hcl:"exchange,block"`
}

type exchangeBlock struct {
	Flow      string  `hcl:"flow,label"`
	Direction string  `hcl:"direction"`
	Value     float64 `hcl:"value"`
	Reference bool    `hcl:"reference,optional"`
	Provider  string  `hcl:"provider,optional"`
}

type fragmentBlock struct {
	Name       string `hcl:"name,label"`
	Flow       string `hcl:"flow"`
	Direction  string `hcl:"direction,optional"`
	Background bool   `hcl:"background,optional"`
	Balance    bool   `hcl:"balance,optional"`
	Stage      string `hcl:"stage,optional"`

	ExchangeValue *float64 `hcl:"exchange_value,optional"`
	Observed      *float64 `hcl:"observed,optional"`
	// ExchangeValues is a map of scenario name to value, decoded with
	// go-cty once the block is known.
	ExchangeValues hcl.Expression `hcl:"exchange_values,optional"`

	Terminations []*terminationBlock `hcl:"termination,block"`
	Children     []*fragmentBlock    `hcl:"fragment,block"`
}

type terminationBlock struct {
	Scenario   string   `hcl:"scenario,optional"`
	Process    string   `hcl:"process,optional"`
	Fragment   string   `hcl:"fragment,optional"`
	Self       bool     `hcl:"self,optional"`
	TermFlow   string   `hcl:"term_flow,optional"`
	Direction  string   `hcl:"direction,optional"`
	Descend    *bool    `hcl:"descend,optional"`
	InboundEV  *float64 `hcl:"inbound_exchange_value,optional"`
	ChildFlows bool     `hcl:"child_flows,optional"`
}
