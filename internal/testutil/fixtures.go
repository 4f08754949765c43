package testutil

// Totals of SteelModel under its climate change method, per unit of the
// named reference fragment.
const (
	SteelGWP          = 0.075 + 2*0.528 + 0.2
	SteelRecyclingGWP = 0.045 + 2*0.528 + 0.2
	CanGWP            = 0.05 * SteelGWP
)

// SteelModel is a small model: steel made from ore and scrap with slag
// balancing the mass, grid electricity from a background fragment, and a
// can that uses the steel as an aggregated subfragment.
var SteelModel = map[string]string{
	"entities.hcl": `
quantity "mass" {
  unit = "kg"
}

quantity "energy" {
  unit = "MJ"
}

quantity "gwp" {
  unit   = "kg CO2 eq"
  method = true
}

flow "steel" {
  quantity = "mass"
}

flow "can" {
  quantity = "mass"
}

flow "iron ore" {
  quantity = "mass"
}

flow "scrap" {
  quantity = "mass"
}

flow "slag" {
  quantity = "mass"
}

flow "electricity" {
  quantity = "energy"
}

flow "co2" {
  quantity    = "mass"
  elementary  = true
  compartment = ["air"]

  factor "gwp" {
    value = 1
  }
}

flow "ch4" {
  quantity    = "mass"
  elementary  = true
  compartment = ["air"]

  factor "gwp" {
    value = 28
  }
}

process "grid mix" {
  location        = "DE"
  classifications = ["Energy", "Electricity"]

  exchange "electricity" {
    direction = "output"
    value     = 1
    reference = true
  }
  exchange "co2" {
    direction = "output"
    value     = 0.5
  }
  exchange "ch4" {
    direction = "output"
    value     = 0.001
  }
}

process "mining" {
  classifications = ["Mining"]

  exchange "iron ore" {
    direction = "output"
    value     = 2
    reference = true
  }
  exchange "electricity" {
    direction = "input"
    value     = 0.2
    provider  = "grid mix"
  }
  exchange "co2" {
    direction = "output"
    value     = 0.1
  }
}
`,
	"fragments/steel.hcl": `
fragment "grid" {
  flow       = "electricity"
  direction  = "input"
  background = true

  termination {
    process = "grid mix"
  }
}

fragment "steel production" {
  flow      = "steel"
  direction = "input"

  termination {
    self = true
  }

  fragment "ore" {
    flow            = "iron ore"
    direction       = "input"
    exchange_value  = 1.5
    exchange_values = { recycling = 0.9 }

    termination {
      process = "mining"
    }
  }

  fragment "scrap" {
    flow            = "scrap"
    direction       = "input"
    exchange_value  = 0.2
    exchange_values = { recycling = 0.8 }
  }

  fragment "slag" {
    flow      = "slag"
    direction = "output"
    balance   = true
  }

  fragment "power" {
    flow           = "electricity"
    direction      = "input"
    exchange_value = 2

    termination {
      fragment = "grid"
    }
  }

  fragment "furnace emissions" {
    flow           = "co2"
    direction      = "output"
    exchange_value = 0.2

    termination {
      self = true
    }
  }
}
`,
	"fragments/can.hcl": `
fragment "can" {
  flow      = "can"
  direction = "input"

  termination {
    self = true
  }

  fragment "can steel" {
    flow           = "steel"
    direction      = "input"
    exchange_value = 0.05

    termination {
      fragment = "steel production"
      descend  = false
    }
  }
}
`,
}
