package fund

// DemoPortfolio returns a small early-stage fund used by the command
// line tools when no portfolio file is given. Checks and valuations are
// in $M; parameters start from DefaultParams with per-company tweaks.
func DemoPortfolio() *Portfolio {
	ai := DefaultParams()
	ai[SeriesA].ExitValuation = Range{Min: 30, Max: 120}
	ai[SeriesB].ExitValuation = Range{Min: 120, Max: 400}

	climate := DefaultParams()
	climate[Seed].Progression = 50
	climate[SeriesA].YearsToNext = Range{Min: 2, Max: 4}

	p := &Portfolio{
		Name: "Demo Fund I",
		Investments: []Investment{
			{
				Name:           "LedgerPilot",
				Sector:         "fintech",
				Region:         "us",
				EntryStage:     PreSeed,
				EntryValuation: 8,
				CheckSize:      0.8,
				Params:         DefaultParams(),
			},
			{
				Name:           "Parsec Labs",
				Sector:         "ai",
				Region:         "us",
				EntryStage:     Seed,
				EntryValuation: 20,
				CheckSize:      1.5,
				Params:         ai,
			},
			{
				Name:           "Helixon Bio",
				Sector:         "healthtech",
				Region:         "eu",
				EntryStage:     Seed,
				EntryValuation: 16,
				CheckSize:      1.2,
				Params:         DefaultParams(),
			},
			{
				Name:           "Northwind Energy",
				Sector:         "climate",
				Region:         "eu",
				EntryStage:     PreSeed,
				EntryValuation: 6,
				CheckSize:      0.6,
				Params:         climate,
			},
			{
				Name:           "CartHatch",
				Sector:         "consumer",
				Region:         "us",
				EntryStage:     SeriesA,
				EntryValuation: 45,
				CheckSize:      3,
				Params:         DefaultParams(),
			},
			{
				Name:           "Relayform",
				Sector:         "devtools",
				Region:         "us",
				EntryStage:     SeriesB,
				EntryValuation: 140,
				CheckSize:      5,
				Params:         DefaultParams(),
			},
		},
	}
	p.EnsureIDs()
	return p
}
